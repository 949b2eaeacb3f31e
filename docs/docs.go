// Package docs registers the OpenAPI description served at /swagger/doc.json.
// Keep in sync with the handler annotations in api/resources.
package docs

import "github.com/swaggo/swag"

const docTemplate = `{
    "schemes": {{ marshal .Schemes }},
    "swagger": "2.0",
    "info": {
        "description": "{{escape .Description}}",
        "title": "{{.Title}}",
        "version": "{{.Version}}"
    },
    "host": "{{.Host}}",
    "basePath": "{{.BasePath}}",
    "securityDefinitions": {
        "BearerAuth": {"type": "apiKey", "name": "Authorization", "in": "header"}
    },
    "paths": {
        "/device/online": {
            "post": {
                "tags": ["devices"],
                "summary": "Device online callback",
                "parameters": [{"in": "body", "name": "online", "required": true, "schema": {"$ref": "#/definitions/onlineRequest"}}],
                "responses": {
                    "200": {"description": "OK"},
                    "401": {"description": "bad claim token", "schema": {"$ref": "#/definitions/APIError"}},
                    "404": {"description": "unknown device", "schema": {"$ref": "#/definitions/APIError"}}
                }
            }
        },
        "/devices": {
            "get": {
                "security": [{"BearerAuth": []}],
                "tags": ["devices"],
                "summary": "List devices",
                "responses": {"200": {"description": "OK", "schema": {"type": "array", "items": {"$ref": "#/definitions/DeviceSummary"}}}}
            }
        },
        "/devices/claim": {
            "post": {
                "security": [{"BearerAuth": []}],
                "tags": ["devices"],
                "summary": "Claim a device",
                "parameters": [{"in": "body", "name": "claim", "required": true, "schema": {"$ref": "#/definitions/claimRequest"}}],
                "responses": {
                    "201": {"description": "Created"},
                    "401": {"description": "bad claim token", "schema": {"$ref": "#/definitions/APIError"}},
                    "404": {"description": "unknown device", "schema": {"$ref": "#/definitions/APIError"}},
                    "409": {"description": "already claimed", "schema": {"$ref": "#/definitions/APIError"}}
                }
            }
        },
        "/devices/{id}/status": {
            "get": {
                "security": [{"BearerAuth": []}],
                "tags": ["devices"],
                "summary": "Device status",
                "parameters": [{"type": "string", "in": "path", "name": "id", "required": true}],
                "responses": {"200": {"description": "OK"}}
            }
        },
        "/plants": {
            "get": {
                "security": [{"BearerAuth": []}],
                "tags": ["plants"],
                "summary": "Search plant catalog",
                "parameters": [
                    {"type": "string", "in": "query", "name": "q"},
                    {"type": "integer", "in": "query", "name": "limit"}
                ],
                "responses": {"200": {"description": "OK"}}
            }
        },
        "/plants/photo": {
            "post": {
                "security": [{"BearerAuth": []}],
                "consumes": ["multipart/form-data"],
                "tags": ["plants"],
                "summary": "Upload plant photo",
                "parameters": [
                    {"type": "string", "in": "formData", "name": "device_id", "required": true},
                    {"type": "integer", "in": "formData", "name": "plant_id", "required": true},
                    {"type": "string", "in": "formData", "name": "avatar_name"},
                    {"type": "file", "in": "formData", "name": "photo", "required": true}
                ],
                "responses": {
                    "201": {"description": "Created"},
                    "403": {"description": "device not claimed by caller", "schema": {"$ref": "#/definitions/APIError"}},
                    "404": {"description": "unknown plant", "schema": {"$ref": "#/definitions/APIError"}}
                }
            }
        },
        "/health/history": {
            "get": {
                "security": [{"BearerAuth": []}],
                "tags": ["health"],
                "summary": "Daily history",
                "parameters": [{"type": "string", "in": "query", "name": "device_id", "required": true}],
                "responses": {"200": {"description": "OK"}, "404": {"description": "not linked", "schema": {"$ref": "#/definitions/APIError"}}}
            }
        },
        "/health/latest": {
            "get": {
                "security": [{"BearerAuth": []}],
                "tags": ["health"],
                "summary": "Latest health",
                "parameters": [{"type": "string", "in": "query", "name": "device_id", "required": true}],
                "responses": {"200": {"description": "OK"}, "404": {"description": "no data", "schema": {"$ref": "#/definitions/APIError"}}}
            }
        },
        "/health/mark-checked": {
            "post": {
                "security": [{"BearerAuth": []}],
                "tags": ["health"],
                "summary": "Mark checked",
                "parameters": [{"in": "body", "name": "body", "required": true, "schema": {"$ref": "#/definitions/deviceBody"}}],
                "responses": {"200": {"description": "OK"}, "404": {"description": "no mood entry", "schema": {"$ref": "#/definitions/APIError"}}}
            }
        },
        "/health/claim-streak": {
            "post": {
                "security": [{"BearerAuth": []}],
                "tags": ["health"],
                "summary": "Claim streak",
                "parameters": [{"in": "body", "name": "body", "required": true, "schema": {"$ref": "#/definitions/deviceBody"}}],
                "responses": {"200": {"description": "OK"}, "404": {"description": "no mood entry", "schema": {"$ref": "#/definitions/APIError"}}}
            }
        },
        "/health/current-streak": {
            "get": {
                "security": [{"BearerAuth": []}],
                "tags": ["health"],
                "summary": "Current streak",
                "parameters": [{"type": "string", "in": "query", "name": "device_id", "required": true}],
                "responses": {"200": {"description": "OK"}}
            }
        },
        "/chat": {
            "post": {
                "security": [{"BearerAuth": []}],
                "tags": ["chat"],
                "summary": "Chat with the plant",
                "responses": {"200": {"description": "OK"}, "502": {"description": "brain offline", "schema": {"$ref": "#/definitions/APIError"}}}
            }
        },
        "/chat/history": {
            "get": {
                "security": [{"BearerAuth": []}],
                "tags": ["chat"],
                "summary": "Chat history",
                "parameters": [{"type": "string", "in": "query", "name": "device_id", "required": true}],
                "responses": {"200": {"description": "OK"}}
            }
        },
        "/user/status": {
            "get": {"security": [{"BearerAuth": []}], "tags": ["user"], "summary": "User status", "responses": {"200": {"description": "OK"}}}
        },
        "/user/onboarding": {
            "get": {"security": [{"BearerAuth": []}], "tags": ["user"], "summary": "Onboarding step", "responses": {"200": {"description": "OK"}}}
        },
        "/tutorial-flags": {
            "get": {"security": [{"BearerAuth": []}], "tags": ["user"], "summary": "Get tutorial flags", "responses": {"200": {"description": "OK"}}},
            "post": {"security": [{"BearerAuth": []}], "tags": ["user"], "summary": "Set tutorial flags", "responses": {"200": {"description": "OK"}}}
        }
    },
    "definitions": {
        "APIError": {
            "type": "object",
            "properties": {
                "type": {"type": "string"},
                "message": {"type": "string"},
                "code": {"type": "integer"},
                "request_id": {"type": "string"}
            }
        },
        "DeviceSummary": {
            "type": "object",
            "properties": {"device_id": {"type": "string"}, "plant_id": {"type": "integer"}}
        },
        "claimRequest": {
            "type": "object",
            "properties": {"device_id": {"type": "string"}, "token": {"type": "string"}}
        },
        "onlineRequest": {
            "type": "object",
            "properties": {"device_id": {"type": "string"}, "claim_token": {"type": "string"}}
        },
        "deviceBody": {
            "type": "object",
            "properties": {"device_id": {"type": "string"}}
        }
    }
}`

// SwaggerInfo holds exported Swagger Info so clients can modify it
var SwaggerInfo = &swag.Spec{
	Version:          "1.0",
	Host:             "",
	BasePath:         "/api/v1",
	Schemes:          []string{},
	Title:            "Talking Plants API",
	Description:      "Device onboarding, plant health and streaks for talking plant pots.",
	InfoInstanceName: "swagger",
	SwaggerTemplate:  docTemplate,
	LeftDelim:        "{{",
	RightDelim:       "}}",
}

func init() {
	swag.Register(SwaggerInfo.InstanceName(), SwaggerInfo)
}
