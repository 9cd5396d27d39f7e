package services

import (
	"testing"
	"time"

	"github.com/amirphl/above-fold-tracker/utils"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewNonceService(t *testing.T) {
	_, err := NewNonceService("", "iss", time.Hour)
	assert.Error(t, err)

	svc, err := NewNonceService("secret", "iss", 0)
	require.NoError(t, err)
	assert.Equal(t, utils.NonceTTL, svc.(*NonceServiceImpl).ttl)
}

func TestNonceService_IssueVerify(t *testing.T) {
	svc, err := NewNonceService("nonce-secret", "above-fold-tracker", time.Hour)
	require.NoError(t, err)

	trackingNonce, err := svc.Issue(utils.TrackingNonceAction, "")
	require.NoError(t, err)
	adminNonce, err := svc.Issue(utils.AdminNonceAction, "12")
	require.NoError(t, err)

	tests := []struct {
		name    string
		nonce   string
		action  string
		subject string
		wantErr error
	}{
		{name: "tracking nonce", nonce: trackingNonce, action: utils.TrackingNonceAction},
		{name: "admin nonce for same admin", nonce: adminNonce, action: utils.AdminNonceAction, subject: "12"},
		{name: "admin nonce for another admin", nonce: adminNonce, action: utils.AdminNonceAction, subject: "13", wantErr: ErrNonceInvalid},
		{name: "tracking nonce used for admin action", nonce: trackingNonce, action: utils.AdminNonceAction, wantErr: ErrNonceActionMismatch},
		{name: "empty", nonce: "", action: utils.TrackingNonceAction, wantErr: ErrNonceMissing},
		{name: "tampered", nonce: trackingNonce + "x", action: utils.TrackingNonceAction, wantErr: ErrNonceInvalid},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := svc.Verify(tt.nonce, tt.action, tt.subject)
			if tt.wantErr != nil {
				assert.ErrorIs(t, err, tt.wantErr)
				return
			}
			assert.NoError(t, err)
		})
	}
}

func TestNonceService_Expired(t *testing.T) {
	svc := &NonceServiceImpl{secret: []byte("s"), issuer: "iss", ttl: -time.Minute}

	nonce, err := svc.Issue(utils.TrackingNonceAction, "")
	require.NoError(t, err)
	assert.ErrorIs(t, svc.Verify(nonce, utils.TrackingNonceAction, ""), ErrNonceExpired)
}

func TestNonceService_OtherSecretRejected(t *testing.T) {
	a, err := NewNonceService("secret-a", "iss", time.Hour)
	require.NoError(t, err)
	b, err := NewNonceService("secret-b", "iss", time.Hour)
	require.NoError(t, err)

	nonce, err := a.Issue(utils.TrackingNonceAction, "")
	require.NoError(t, err)
	assert.ErrorIs(t, b.Verify(nonce, utils.TrackingNonceAction, ""), ErrNonceInvalid)
}
