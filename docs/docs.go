// Package docs registers the OpenAPI document for the atlas-core API.
// Regenerate with `swag init -g cmd/atlas-core/main.go` after changing handler annotations.
package docs

import "github.com/swaggo/swag"

const docTemplate = `{
    "schemes": {{ marshal .Schemes }},
    "swagger": "2.0",
    "info": {
        "description": "{{escape .Description}}",
        "title": "{{.Title}}",
        "contact": {
            "name": "Atlas OSS",
            "url": "https://github.com/custodia-labs/atlas-core/issues"
        },
        "license": {
            "name": "Apache 2.0",
            "url": "http://www.apache.org/licenses/LICENSE-2.0.html"
        },
        "version": "{{.Version}}"
    },
    "host": "{{.Host}}",
    "basePath": "{{.BasePath}}",
    "paths": {
        "/session/connect": {
            "post": {
                "description": "Claims an access code and returns a bearer credential. A second connect with the same code takes the session over.",
                "consumes": ["application/json"],
                "produces": ["application/json"],
                "tags": ["Session"],
                "summary": "Connect a session",
                "parameters": [
                    {"description": "Access code and optional prior token", "name": "request", "in": "body", "required": true, "schema": {"$ref": "#/definitions/domain.ConnectRequest"}}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/domain.ConnectResponse"}},
                    "400": {"description": "Missing access code", "schema": {"$ref": "#/definitions/http.ErrorResponse"}},
                    "401": {"description": "Unknown access code", "schema": {"$ref": "#/definitions/http.ErrorResponse"}}
                }
            }
        },
        "/session/disconnect": {
            "post": {
                "security": [{"BearerAuth": []}],
                "produces": ["application/json"],
                "tags": ["Session"],
                "summary": "Disconnect a session",
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/http.StatusResponse"}},
                    "401": {"description": "Unauthorized", "schema": {"$ref": "#/definitions/http.ErrorResponse"}}
                }
            }
        },
        "/session/heartbeat": {
            "post": {
                "security": [{"BearerAuth": []}],
                "produces": ["application/json"],
                "tags": ["Session"],
                "summary": "Keep a session alive",
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/domain.QueueStatus"}},
                    "401": {"description": "Unauthorized", "schema": {"$ref": "#/definitions/http.ErrorResponse"}}
                }
            }
        },
        "/queue/status": {
            "get": {
                "security": [{"BearerAuth": []}],
                "produces": ["application/json"],
                "tags": ["Queue"],
                "summary": "Queue position of the caller",
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/domain.QueueStatus"}}
                }
            }
        },
        "/queue/turn": {
            "post": {
                "security": [{"BearerAuth": []}],
                "produces": ["application/json"],
                "tags": ["Queue"],
                "summary": "Request the inference turn",
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/http.TurnResponse"}},
                    "409": {"description": "Not connected", "schema": {"$ref": "#/definitions/http.ErrorResponse"}}
                }
            }
        },
        "/queue/finish": {
            "post": {
                "security": [{"BearerAuth": []}],
                "produces": ["application/json"],
                "tags": ["Queue"],
                "summary": "Release the turn or leave the queue",
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/http.TurnResponse"}},
                    "409": {"description": "No turn requested", "schema": {"$ref": "#/definitions/http.ErrorResponse"}}
                }
            }
        },
        "/chat/stream": {
            "post": {
                "security": [{"BearerAuth": []}],
                "description": "Waits for the inference turn, then streams status, token, sites and done events as server-sent events.",
                "consumes": ["application/json"],
                "produces": ["text/event-stream"],
                "tags": ["Chat"],
                "summary": "Answer a question",
                "parameters": [
                    {"description": "Question and history", "name": "request", "in": "body", "required": true, "schema": {"$ref": "#/definitions/domain.ChatRequest"}}
                ],
                "responses": {
                    "200": {"description": "Event stream", "schema": {"$ref": "#/definitions/domain.StreamEvent"}},
                    "400": {"description": "Missing query", "schema": {"$ref": "#/definitions/http.ErrorResponse"}},
                    "409": {"description": "Session ended", "schema": {"$ref": "#/definitions/http.ErrorResponse"}}
                }
            }
        },
        "/search": {
            "post": {
                "security": [{"BearerAuth": []}],
                "consumes": ["application/json"],
                "produces": ["application/json"],
                "tags": ["Search"],
                "summary": "Search site collections",
                "parameters": [
                    {"description": "Query, sources and filters", "name": "request", "in": "body", "required": true, "schema": {"$ref": "#/definitions/http.searchRequest"}}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/http.searchResponse"}},
                    "400": {"description": "Invalid request", "schema": {"$ref": "#/definitions/http.ErrorResponse"}},
                    "503": {"description": "Backends unavailable", "schema": {"$ref": "#/definitions/http.ErrorResponse"}}
                }
            }
        },
        "/query/analyze": {
            "post": {
                "security": [{"BearerAuth": []}],
                "consumes": ["application/json"],
                "produces": ["application/json"],
                "tags": ["Search"],
                "summary": "Classify and parse a query",
                "parameters": [
                    {"description": "Query", "name": "request", "in": "body", "required": true, "schema": {"$ref": "#/definitions/http.analyzeRequest"}}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/domain.QueryAnalysis"}}
                }
            }
        },
        "/collections": {
            "get": {
                "security": [{"BearerAuth": []}],
                "produces": ["application/json"],
                "tags": ["Search"],
                "summary": "List searchable collections",
                "responses": {
                    "200": {"description": "OK", "schema": {"type": "array", "items": {"$ref": "#/definitions/domain.Collection"}}}
                }
            }
        }
    },
    "definitions": {
        "domain.ConnectRequest": {
            "type": "object",
            "properties": {
                "access_code": {"type": "string"},
                "token": {"type": "string"}
            }
        },
        "domain.ConnectResponse": {"type": "object"},
        "domain.QueueStatus": {"type": "object"},
        "domain.ChatRequest": {
            "type": "object",
            "properties": {
                "query": {"type": "string"},
                "sources": {"type": "array", "items": {"type": "string"}},
                "model": {"type": "string"},
                "max_tokens": {"type": "integer"}
            }
        },
        "domain.StreamEvent": {"type": "object"},
        "domain.QueryAnalysis": {"type": "object"},
        "domain.Collection": {"type": "object"},
        "http.analyzeRequest": {
            "type": "object",
            "properties": {"query": {"type": "string"}}
        },
        "http.searchRequest": {
            "type": "object",
            "properties": {
                "query": {"type": "string"},
                "sources": {"type": "array", "items": {"type": "string"}},
                "limit": {"type": "integer"},
                "near_feature": {"type": "string"},
                "radius_km": {"type": "number"}
            }
        },
        "http.searchResponse": {
            "type": "object",
            "properties": {
                "count": {"type": "integer"},
                "results": {"type": "array", "items": {"type": "object"}}
            }
        },
        "http.ErrorResponse": {
            "type": "object",
            "properties": {"error": {"type": "string"}}
        },
        "http.StatusResponse": {
            "type": "object",
            "properties": {"status": {"type": "string"}}
        },
        "http.TurnResponse": {
            "type": "object",
            "properties": {
                "position": {"type": "integer"},
                "processing": {"type": "boolean"},
                "queue_depth": {"type": "integer"}
            }
        }
    },
    "securityDefinitions": {
        "BearerAuth": {
            "description": "Session credential from /session/connect. Format: \"Bearer {token}\"",
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
	BasePath:         "/api/v1",
	Schemes:          []string{"http", "https"},
	Title:            "Atlas Core API",
	Description:      "Archaeological site search and question answering. Sessions are admitted by access code and answers are streamed one inference turn at a time.",
	InfoInstanceName: "swagger",
	SwaggerTemplate:  docTemplate,
	LeftDelim:        "{{",
	RightDelim:       "}}",
}

func init() {
	swag.Register(SwaggerInfo.InstanceName(), SwaggerInfo)
}
