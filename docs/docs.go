// Package docs registers the OpenAPI document served at /api/v1/swagger.json
package docs

import "github.com/swaggo/swag"

const docTemplate = `{
    "schemes": {{ marshal .Schemes }},
    "swagger": "2.0",
    "info": {
        "description": "{{escape .Description}}",
        "title": "{{.Title}}",
        "contact": {},
        "version": "{{.Version}}"
    },
    "host": "{{.Host}}",
    "basePath": "{{.BasePath}}",
    "paths": {
        "/api/v1/abovefold/track": {
            "post": {
                "description": "Validate, sanitize and store the screen size and links visible in the first viewport",
                "consumes": ["application/json"],
                "produces": ["application/json"],
                "tags": ["Tracking"],
                "summary": "Submit above-the-fold report",
                "parameters": [
                    {
                        "description": "Report",
                        "name": "request",
                        "in": "body",
                        "required": true,
                        "schema": {"$ref": "#/definitions/dto.TrackingSubmission"}
                    }
                ],
                "responses": {
                    "200": {"description": "Stored", "schema": {"$ref": "#/definitions/dto.TrackingResponse"}},
                    "400": {"description": "Invalid data", "schema": {"$ref": "#/definitions/dto.TrackingResponse"}},
                    "403": {"description": "Nonce verification failed", "schema": {"$ref": "#/definitions/dto.TrackingResponse"}},
                    "500": {"description": "Internal server error", "schema": {"$ref": "#/definitions/dto.TrackingResponse"}}
                }
            }
        },
        "/api/v1/ajax/track": {
            "post": {
                "consumes": ["application/x-www-form-urlencoded"],
                "produces": ["application/json"],
                "tags": ["Tracking"],
                "summary": "Submit above-the-fold report (form transport)",
                "parameters": [
                    {"type": "string", "description": "Screen size, e.g. 1920x1080", "name": "screen", "in": "formData", "required": true},
                    {"type": "string", "description": "JSON-encoded array of {url,text}", "name": "links", "in": "formData", "required": true},
                    {"type": "string", "description": "Tracking nonce", "name": "nonce", "in": "formData", "required": true}
                ],
                "responses": {
                    "200": {"description": "Stored", "schema": {"$ref": "#/definitions/dto.TrackingResponse"}},
                    "400": {"description": "Invalid data", "schema": {"$ref": "#/definitions/dto.TrackingResponse"}},
                    "403": {"description": "Nonce verification failed", "schema": {"$ref": "#/definitions/dto.TrackingResponse"}},
                    "500": {"description": "Internal server error", "schema": {"$ref": "#/definitions/dto.TrackingResponse"}}
                }
            }
        },
        "/api/v1/abovefold/config": {
            "get": {
                "produces": ["application/json"],
                "tags": ["Tracking"],
                "summary": "Tracker configuration",
                "responses": {
                    "200": {"description": "Configuration", "schema": {"$ref": "#/definitions/dto.APIResponse"}}
                }
            }
        },
        "/api/v1/admin/auth/login": {
            "post": {
                "consumes": ["application/json"],
                "produces": ["application/json"],
                "tags": ["Admin Authentication"],
                "summary": "Admin login",
                "parameters": [
                    {"description": "Admin login data", "name": "request", "in": "body", "required": true, "schema": {"$ref": "#/definitions/dto.AdminLoginRequest"}}
                ],
                "responses": {
                    "200": {"description": "Login successful", "schema": {"$ref": "#/definitions/dto.APIResponse"}},
                    "401": {"description": "Invalid credentials", "schema": {"$ref": "#/definitions/dto.APIResponse"}}
                }
            }
        },
        "/api/v1/admin/auth/refresh": {
            "post": {
                "consumes": ["application/json"],
                "produces": ["application/json"],
                "tags": ["Admin Authentication"],
                "summary": "Admin token refresh",
                "parameters": [
                    {"description": "Refresh token", "name": "request", "in": "body", "required": true, "schema": {"$ref": "#/definitions/dto.AdminRefreshRequest"}}
                ],
                "responses": {
                    "200": {"description": "Token refreshed", "schema": {"$ref": "#/definitions/dto.APIResponse"}},
                    "401": {"description": "Invalid or expired refresh token", "schema": {"$ref": "#/definitions/dto.APIResponse"}}
                }
            }
        },
        "/api/v1/admin/auth/logout": {
            "post": {
                "security": [{"BearerAuth": []}],
                "consumes": ["application/json"],
                "produces": ["application/json"],
                "tags": ["Admin Authentication"],
                "summary": "Admin logout",
                "parameters": [
                    {"description": "Refresh token to revoke", "name": "request", "in": "body", "schema": {"$ref": "#/definitions/dto.AdminLogoutRequest"}}
                ],
                "responses": {
                    "200": {"description": "Logged out", "schema": {"$ref": "#/definitions/dto.APIResponse"}},
                    "400": {"description": "Invalid request body", "schema": {"$ref": "#/definitions/dto.APIResponse"}},
                    "401": {"description": "Unauthorized", "schema": {"$ref": "#/definitions/dto.APIResponse"}}
                }
            }
        },
        "/api/v1/admin/abovefold": {
            "get": {
                "security": [{"BearerAuth": []}],
                "produces": ["text/html"],
                "tags": ["Admin Above The Fold"],
                "summary": "Above-the-fold dashboard",
                "parameters": [
                    {"type": "integer", "description": "Page number (1-indexed)", "name": "paged", "in": "query"}
                ],
                "responses": {
                    "200": {"description": "HTML page", "schema": {"type": "string"}}
                }
            }
        },
        "/api/v1/admin/abovefold/records": {
            "get": {
                "security": [{"BearerAuth": []}],
                "produces": ["application/json"],
                "tags": ["Admin Above The Fold"],
                "summary": "List tracking records",
                "parameters": [
                    {"type": "integer", "description": "Page number (1-indexed)", "name": "page", "in": "query"}
                ],
                "responses": {
                    "200": {"description": "Records", "schema": {"$ref": "#/definitions/dto.APIResponse"}}
                }
            }
        },
        "/api/v1/admin/abovefold/nonce": {
            "get": {
                "security": [{"BearerAuth": []}],
                "produces": ["application/json"],
                "tags": ["Admin Above The Fold"],
                "summary": "Issue admin nonce",
                "responses": {
                    "200": {"description": "Nonce", "schema": {"$ref": "#/definitions/dto.APIResponse"}}
                }
            }
        },
        "/api/v1/admin/abovefold/details": {
            "post": {
                "security": [{"BearerAuth": []}],
                "consumes": ["application/json", "application/x-www-form-urlencoded"],
                "produces": ["application/json"],
                "tags": ["Admin Above The Fold"],
                "summary": "Tracking record details",
                "parameters": [
                    {"description": "Record id and admin nonce", "name": "request", "in": "body", "required": true, "schema": {"$ref": "#/definitions/dto.AdminDetailRequest"}}
                ],
                "responses": {
                    "200": {"description": "HTML fragment", "schema": {"$ref": "#/definitions/dto.APIResponse"}},
                    "400": {"description": "Invalid request.", "schema": {"$ref": "#/definitions/dto.APIResponse"}},
                    "403": {"description": "Security check failed", "schema": {"$ref": "#/definitions/dto.APIResponse"}},
                    "404": {"description": "Record not found.", "schema": {"$ref": "#/definitions/dto.APIResponse"}}
                }
            }
        },
        "/api/v1/admin/abovefold/export": {
            "get": {
                "security": [{"BearerAuth": []}],
                "produces": ["application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"],
                "tags": ["Admin Above The Fold"],
                "summary": "Export tracking records (Excel)",
                "parameters": [
                    {"type": "integer", "description": "Number of latest records (default 1000, max 10000)", "name": "limit", "in": "query"}
                ],
                "responses": {
                    "200": {"description": "Excel workbook", "schema": {"type": "file"}},
                    "400": {"description": "Invalid limit", "schema": {"$ref": "#/definitions/dto.APIResponse"}}
                }
            }
        },
        "/api/v1/admin/abovefold/settings": {
            "get": {
                "security": [{"BearerAuth": []}],
                "produces": ["application/json"],
                "tags": ["Admin Settings"],
                "summary": "Get tracker settings",
                "responses": {
                    "200": {"description": "Settings", "schema": {"$ref": "#/definitions/dto.APIResponse"}}
                }
            },
            "put": {
                "security": [{"BearerAuth": []}],
                "consumes": ["application/json"],
                "produces": ["application/json"],
                "tags": ["Admin Settings"],
                "summary": "Update tracker settings",
                "parameters": [
                    {"description": "Fields to change", "name": "request", "in": "body", "required": true, "schema": {"$ref": "#/definitions/dto.UpdateTrackerSettingsRequest"}}
                ],
                "responses": {
                    "200": {"description": "Settings updated", "schema": {"$ref": "#/definitions/dto.APIResponse"}},
                    "400": {"description": "Validation error", "schema": {"$ref": "#/definitions/dto.APIResponse"}}
                }
            }
        },
        "/api/v1/admin/abovefold/purge": {
            "post": {
                "security": [{"BearerAuth": []}],
                "produces": ["application/json"],
                "tags": ["Admin Above The Fold"],
                "summary": "Run retention purge now",
                "responses": {
                    "200": {"description": "Purge result", "schema": {"$ref": "#/definitions/dto.APIResponse"}}
                }
            }
        },
        "/api/v1/admin/abovefold/data": {
            "delete": {
                "security": [{"BearerAuth": []}],
                "produces": ["application/json"],
                "tags": ["Admin Above The Fold"],
                "summary": "Remove all tracker data",
                "responses": {
                    "200": {"description": "Data removed", "schema": {"$ref": "#/definitions/dto.APIResponse"}}
                }
            }
        }
    },
    "definitions": {
        "dto.APIResponse": {
            "type": "object",
            "properties": {
                "data": {},
                "error": {},
                "message": {"type": "string"},
                "success": {"type": "boolean"}
            }
        },
        "dto.TrackingSubmission": {
            "type": "object",
            "properties": {
                "links": {},
                "nonce": {"type": "string"},
                "screen": {"type": "string", "example": "1920x1080"}
            }
        },
        "dto.TrackingResponse": {
            "type": "object",
            "properties": {
                "inserted": {"type": "integer", "example": 42},
                "message": {"type": "string"},
                "status": {"type": "string", "example": "success"}
            }
        },
        "dto.AdminLoginRequest": {
            "type": "object",
            "required": ["password", "username"],
            "properties": {
                "password": {"type": "string", "maxLength": 100, "minLength": 8},
                "username": {"type": "string", "maxLength": 255, "minLength": 3}
            }
        },
        "dto.AdminRefreshRequest": {
            "type": "object",
            "required": ["refresh_token"],
            "properties": {
                "refresh_token": {"type": "string"}
            }
        },
        "dto.AdminLogoutRequest": {
            "type": "object",
            "properties": {
                "refresh_token": {"type": "string"}
            }
        },
        "dto.AdminDetailRequest": {
            "type": "object",
            "required": ["id", "security"],
            "properties": {
                "id": {"type": "integer"},
                "security": {"type": "string"}
            }
        },
        "dto.UpdateTrackerSettingsRequest": {
            "type": "object",
            "properties": {
                "data_retention_days": {"type": "integer", "maximum": 365, "minimum": 1},
                "disable_on_login": {"type": "boolean"}
            }
        }
    },
    "securityDefinitions": {
        "BearerAuth": {
            "type": "apiKey",
            "name": "Authorization",
            "in": "header"
        }
    }
}`

// SwaggerInfo holds exported Swagger Info so clients can modify it
var SwaggerInfo = &swag.Spec{
	Version:          "1.0.0",
	Host:             "",
	BasePath:         "/",
	Schemes:          []string{},
	Title:            "Above the Fold Tracker API",
	Description:      "Records which links are visible in the first viewport and reports them to operators.",
	InfoInstanceName: "swagger",
	SwaggerTemplate:  docTemplate,
	LeftDelim:        "{{",
	RightDelim:       "}}",
}

func init() {
	swag.Register(SwaggerInfo.InstanceName(), SwaggerInfo)
}
