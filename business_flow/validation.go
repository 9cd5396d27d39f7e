package businessflow

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"net/url"
	"regexp"
	"strings"
	"unicode"
	"unicode/utf8"

	"github.com/amirphl/above-fold-tracker/models"
	"github.com/amirphl/above-fold-tracker/utils"
	"github.com/go-playground/validator/v10"
	"golang.org/x/net/html"
	"golang.org/x/net/html/atom"
)

var (
	screenPattern = regexp.MustCompile(`^\d{3,5}x\d{3,5}$`)

	trackingValidator = newTrackingValidator()
)

type screenInput struct {
	Screen string `validate:"required,max=20,screen_size"`
}

type linkInput struct {
	URL string `validate:"required,abs_url"`
}

func newTrackingValidator() *validator.Validate {
	v := validator.New()
	_ = v.RegisterValidation("screen_size", func(fl validator.FieldLevel) bool {
		return screenPattern.MatchString(fl.Field().String())
	})
	_ = v.RegisterValidation("abs_url", func(fl validator.FieldLevel) bool {
		return isAbsoluteURL(fl.Field().String())
	})
	return v
}

func isAbsoluteURL(raw string) bool {
	u, err := url.Parse(raw)
	if err != nil {
		return false
	}
	return u.Scheme != "" && u.Host != ""
}

// ValidateScreen reports whether screen looks like "<width>x<height>" with 3 to 5 digits each.
// No numeric range is enforced.
func ValidateScreen(screen string) bool {
	return checkScreen(screen) == nil
}

func checkScreen(screen string) error {
	if err := trackingValidator.Struct(screenInput{Screen: screen}); err != nil {
		return fmt.Errorf("%w: %s", ErrInvalidScreen, getValidationErrorMessage(err))
	}
	return nil
}

// ValidateLinks reports whether raw decodes to a sequence of at most maxLinks entries,
// each carrying an absolute url. maxLinks <= 0 means utils.DefaultMaxLinks.
func ValidateLinks(raw any, maxLinks int) bool {
	links, err := DecodeLinks(raw)
	if err != nil {
		return false
	}
	return checkLinks(links, maxLinks) == nil
}

func checkLinks(links []models.LinkEntry, maxLinks int) error {
	if maxLinks <= 0 {
		maxLinks = utils.DefaultMaxLinks
	}
	if len(links) > maxLinks {
		return fmt.Errorf("%w: %d links exceeds the maximum of %d", ErrInvalidLinks, len(links), maxLinks)
	}
	for i, link := range links {
		if err := trackingValidator.Struct(linkInput{URL: link.URL}); err != nil {
			return fmt.Errorf("%w: link %d: %s", ErrInvalidLinks, i, getValidationErrorMessage(err))
		}
	}
	return nil
}

type rawLink struct {
	URL  *string `json:"url"`
	Text any     `json:"text"`
}

// DecodeLinks turns the links field of a submission into entries.
// raw may be a JSON string (possibly encoded twice), raw JSON bytes, []models.LinkEntry
// or any structured value that marshals to a JSON array.
func DecodeLinks(raw any) ([]models.LinkEntry, error) {
	switch v := raw.(type) {
	case nil:
		return nil, fmt.Errorf("%w: links are missing", ErrInvalidLinks)
	case []models.LinkEntry:
		out := make([]models.LinkEntry, len(v))
		copy(out, v)
		return out, nil
	case string:
		return decodeLinksJSON([]byte(v), true)
	case json.RawMessage:
		return decodeLinksJSON(v, true)
	case []byte:
		return decodeLinksJSON(v, true)
	default:
		b, err := json.Marshal(v)
		if err != nil {
			return nil, fmt.Errorf("%w: %v", ErrInvalidLinks, err)
		}
		return decodeLinksJSON(b, false)
	}
}

func decodeLinksJSON(b []byte, allowQuoted bool) ([]models.LinkEntry, error) {
	b = bytes.TrimSpace(b)
	if len(b) == 0 {
		return nil, fmt.Errorf("%w: links are empty", ErrInvalidLinks)
	}

	// Form transports sometimes double-encode the array
	if allowQuoted && b[0] == '"' {
		var inner string
		if err := json.Unmarshal(b, &inner); err != nil {
			return nil, fmt.Errorf("%w: %v", ErrInvalidLinks, err)
		}
		return decodeLinksJSON([]byte(inner), false)
	}

	if b[0] != '[' {
		return nil, fmt.Errorf("%w: links must be an array", ErrInvalidLinks)
	}

	var items []rawLink
	if err := json.Unmarshal(b, &items); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidLinks, err)
	}

	links := make([]models.LinkEntry, 0, len(items))
	for _, item := range items {
		entry := models.LinkEntry{Text: textValue(item.Text)}
		if item.URL != nil {
			entry.URL = *item.URL
		}
		links = append(links, entry)
	}
	return links, nil
}

func textValue(v any) string {
	switch t := v.(type) {
	case nil:
		return ""
	case string:
		return t
	default:
		return fmt.Sprint(t)
	}
}

// SanitizeLinks returns a cleaned copy of links. It never fails:
// non-http(s) urls become empty and text is reduced to a single clipped line of plain text.
func SanitizeLinks(links []models.LinkEntry) []models.LinkEntry {
	out := make([]models.LinkEntry, 0, len(links))
	for _, link := range links {
		out = append(out, models.LinkEntry{
			URL:  SanitizeURL(link.URL),
			Text: SanitizeText(link.Text, utils.MaxLinkTextLength),
		})
	}
	return out
}

// SanitizeURL keeps only absolute http and https urls
func SanitizeURL(raw string) string {
	u, err := url.Parse(strings.TrimSpace(raw))
	if err != nil || u.Host == "" {
		return ""
	}
	switch strings.ToLower(u.Scheme) {
	case "http", "https":
		u.Scheme = strings.ToLower(u.Scheme)
		return u.String()
	default:
		return ""
	}
}

// SanitizeText strips markup and control characters, collapses whitespace and clips to maxRunes
func SanitizeText(s string, maxRunes int) string {
	if !utf8.ValidString(s) {
		s = strings.ToValidUTF8(s, "")
	}
	s = stripMarkup(s)
	s = strings.Map(func(r rune) rune {
		if unicode.IsControl(r) {
			return ' '
		}
		return r
	}, s)
	s = strings.Join(strings.Fields(s), " ")

	if maxRunes > 0 && utf8.RuneCountInString(s) > maxRunes {
		s = strings.TrimSpace(string([]rune(s)[:maxRunes]))
	}
	return s
}

// stripMarkup keeps the text content of s. Tags, comments and the bodies of
// script and style elements are dropped; a bare "<" that opens no tag stays text.
func stripMarkup(s string) string {
	if !strings.ContainsAny(s, "<&") {
		return s
	}

	var b strings.Builder
	z := html.NewTokenizer(strings.NewReader(s))
	skipDepth := 0
	for {
		switch z.Next() {
		case html.ErrorToken:
			return b.String()
		case html.TextToken:
			if skipDepth == 0 {
				b.Write(z.Text())
			}
		case html.StartTagToken:
			if isHiddenElement(z) {
				skipDepth++
			}
		case html.EndTagToken:
			if skipDepth > 0 && isHiddenElement(z) {
				skipDepth--
			}
		}
	}
}

func isHiddenElement(z *html.Tokenizer) bool {
	name, _ := z.TagName()
	switch atom.Lookup(name) {
	case atom.Script, atom.Style:
		return true
	default:
		return false
	}
}

// getValidationErrorMessage renders validator errors for logs
func getValidationErrorMessage(err error) string {
	var validationErrors validator.ValidationErrors
	if !errors.As(err, &validationErrors) {
		return err.Error()
	}
	msgs := make([]string, 0, len(validationErrors))
	for _, fe := range validationErrors {
		switch fe.Tag() {
		case "required":
			msgs = append(msgs, fmt.Sprintf("%s is required", strings.ToLower(fe.Field())))
		case "screen_size":
			msgs = append(msgs, fmt.Sprintf("screen %q must look like 1920x1080", fe.Value()))
		case "abs_url":
			msgs = append(msgs, fmt.Sprintf("url %q is not absolute", fe.Value()))
		case "max":
			msgs = append(msgs, fmt.Sprintf("%s must be at most %s characters", strings.ToLower(fe.Field()), fe.Param()))
		default:
			msgs = append(msgs, fmt.Sprintf("%s failed %s", strings.ToLower(fe.Field()), fe.Tag()))
		}
	}
	return strings.Join(msgs, "; ")
}
