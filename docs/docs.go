// Package docs holds the OpenAPI document served at /swagger.
// Regenerate with: swag init -g cmd/api/main.go
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
        "/focus-groups": {
            "get": {
                "security": [{"BearerAuth": []}],
                "produces": ["application/json"],
                "tags": ["FocusGroups"],
                "summary": "List focus groups",
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/common.SuccessResponse"}},
                    "401": {"description": "Unauthorized", "schema": {"$ref": "#/definitions/common.ErrorResponse"}}
                }
            },
            "post": {
                "security": [{"BearerAuth": []}],
                "consumes": ["application/json"],
                "produces": ["application/json"],
                "tags": ["FocusGroups"],
                "summary": "Schedule a focus group",
                "parameters": [
                    {"description": "Focus group", "name": "request", "in": "body", "required": true, "schema": {"$ref": "#/definitions/focusgroup.CreateFocusGroupRequest"}}
                ],
                "responses": {
                    "201": {"description": "Created", "schema": {"$ref": "#/definitions/common.SuccessResponse"}},
                    "400": {"description": "Bad Request", "schema": {"$ref": "#/definitions/common.ErrorResponse"}},
                    "403": {"description": "Forbidden", "schema": {"$ref": "#/definitions/common.ErrorResponse"}},
                    "404": {"description": "Not Found", "schema": {"$ref": "#/definitions/common.ErrorResponse"}},
                    "502": {"description": "Bad Gateway", "schema": {"$ref": "#/definitions/common.ErrorResponse"}}
                }
            }
        },
        "/focus-groups/{id}": {
            "get": {
                "security": [{"BearerAuth": []}],
                "produces": ["application/json"],
                "tags": ["FocusGroups"],
                "summary": "Get a focus group",
                "parameters": [{"type": "string", "description": "Focus group ID (UUID)", "name": "id", "in": "path", "required": true}],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/common.SuccessResponse"}},
                    "404": {"description": "Not Found", "schema": {"$ref": "#/definitions/common.ErrorResponse"}}
                }
            }
        },
        "/focus-groups/{id}/start": {
            "post": {
                "security": [{"BearerAuth": []}],
                "produces": ["application/json"],
                "tags": ["Sessions"],
                "summary": "Start the moderator bot",
                "parameters": [{"type": "string", "description": "Focus group ID (UUID)", "name": "id", "in": "path", "required": true}],
                "responses": {
                    "202": {"description": "Accepted", "schema": {"$ref": "#/definitions/common.SuccessResponse"}},
                    "409": {"description": "Conflict", "schema": {"$ref": "#/definitions/common.ErrorResponse"}},
                    "422": {"description": "Unprocessable Entity", "schema": {"$ref": "#/definitions/common.ErrorResponse"}}
                }
            }
        },
        "/focus-groups/{id}/session": {
            "get": {
                "security": [{"BearerAuth": []}],
                "produces": ["application/json"],
                "tags": ["Sessions"],
                "summary": "Latest bot session",
                "parameters": [{"type": "string", "description": "Focus group ID (UUID)", "name": "id", "in": "path", "required": true}],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/common.SuccessResponse"}},
                    "404": {"description": "Not Found", "schema": {"$ref": "#/definitions/common.ErrorResponse"}}
                }
            }
        },
        "/sessions/{id}/stop": {
            "post": {
                "security": [{"BearerAuth": []}],
                "produces": ["application/json"],
                "tags": ["Sessions"],
                "summary": "Stop the moderator bot",
                "parameters": [{"type": "string", "description": "Session ID (UUID)", "name": "id", "in": "path", "required": true}],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/common.SuccessResponse"}},
                    "404": {"description": "Not Found", "schema": {"$ref": "#/definitions/common.ErrorResponse"}}
                }
            }
        },
        "/webhooks/livekit": {
            "post": {
                "consumes": ["application/json"],
                "produces": ["application/json"],
                "tags": ["Webhooks"],
                "summary": "LiveKit webhook",
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/common.SuccessResponse"}},
                    "401": {"description": "Unauthorized", "schema": {"$ref": "#/definitions/common.ErrorResponse"}}
                }
            }
        }
    },
    "definitions": {
        "common.SuccessResponse": {
            "type": "object",
            "properties": {
                "code": {"type": "integer", "example": 200},
                "message": {"type": "string", "example": "success"},
                "data": {}
            }
        },
        "common.ErrorResponse": {
            "type": "object",
            "properties": {
                "code": {"type": "integer", "example": 3000},
                "message": {"type": "string", "example": "Focus group not found"},
                "info": {"type": "string"}
            }
        },
        "focusgroup.CreateFocusGroupRequest": {
            "type": "object",
            "required": ["questionnaire_id", "title"],
            "properties": {
                "title": {"type": "string", "maxLength": 255, "example": "Morning tea habits"},
                "description": {"type": "string", "maxLength": 5000},
                "questionnaire_id": {"type": "string", "example": "4f0a8f0e-3c0b-4a8b-9a57-8c6c1f7e2d11"},
                "scheduled_at": {"type": "string", "example": "2026-05-01T09:00:00Z"},
                "duration": {"type": "integer", "minimum": 5, "maximum": 480, "example": 60},
                "participants": {"type": "array", "maxItems": 100, "items": {"$ref": "#/definitions/focusgroup.ParticipantRequest"}},
                "settings": {"$ref": "#/definitions/focusgroup.SettingsRequest"}
            }
        },
        "focusgroup.ParticipantRequest": {
            "type": "object",
            "required": ["email"],
            "properties": {
                "email": {"type": "string", "example": "ann@example.com"},
                "name": {"type": "string", "example": "Ann"}
            }
        },
        "focusgroup.SettingsRequest": {
            "type": "object",
            "properties": {
                "max_participants": {"type": "integer", "minimum": 1, "maximum": 100, "example": 20},
                "time_per_question": {"type": "integer", "minimum": 1, "maximum": 600, "example": 5},
                "enable_summarization": {"type": "boolean", "example": true}
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
	Version:          "1.0",
	Host:             "localhost:8080",
	BasePath:         "/v1",
	Schemes:          []string{},
	Title:            "Focus Group Bot API",
	Description:      "Schedules focus groups and runs the AI moderator bot in LiveKit rooms.",
	InfoInstanceName: "swagger",
	SwaggerTemplate:  docTemplate,
	LeftDelim:        "{{",
	RightDelim:       "}}",
}

func init() {
	swag.Register(SwaggerInfo.InstanceName(), SwaggerInfo)
}
