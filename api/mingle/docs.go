// Package mingle holds the OpenAPI document served under /swagger/.
// Keep it in step with the handler annotations in internal/mingle/http.
package mingle

import "github.com/swaggo/swag"

const docTemplate = `{
    "schemes": {{ marshal .Schemes }},
    "swagger": "2.0",
    "info": {
        "description": "{{escape .Description}}",
        "title": "{{.Title}}",
        "contact": {
            "name": "AussieBroadWAN Team",
            "url": "https://github.com/aussiebroadwan/mingle"
        },
        "license": {
            "name": "MIT",
            "url": "https://opensource.org/licenses/MIT"
        },
        "version": "{{.Version}}"
    },
    "host": "{{.Host}}",
    "basePath": "{{.BasePath}}",
    "paths": {
        "/livez": {
            "get": {
                "summary": "Health Check Endpoint",
                "tags": [
                    "Health"
                ],
                "produces": [
                    "application/json"
                ],
                "responses": {
                    "200": {
                        "description": "OK",
                        "schema": {
                            "$ref": "#/definitions/minglesdk.HealthResponse"
                        }
                    }
                }
            }
        },
        "/readyz": {
            "get": {
                "summary": "Readiness Check Endpoint",
                "tags": [
                    "Health"
                ],
                "produces": [
                    "application/json"
                ],
                "responses": {
                    "200": {
                        "description": "OK",
                        "schema": {
                            "$ref": "#/definitions/minglesdk.HealthResponse"
                        }
                    },
                    "503": {
                        "description": "error",
                        "schema": {
                            "$ref": "#/definitions/minglesdk.ErrorResponse"
                        }
                    }
                }
            }
        },
        "/v1/otp": {
            "post": {
                "summary": "Send a verification code",
                "tags": [
                    "Accounts"
                ],
                "produces": [
                    "application/json"
                ],
                "responses": {
                    "202": {
                        "description": "OK",
                        "schema": {
                            "$ref": "#/definitions/minglesdk.IssueCodeResponse"
                        }
                    },
                    "400": {
                        "description": "error",
                        "schema": {
                            "$ref": "#/definitions/minglesdk.ErrorResponse"
                        }
                    },
                    "409": {
                        "description": "error",
                        "schema": {
                            "$ref": "#/definitions/minglesdk.ErrorResponse"
                        }
                    },
                    "429": {
                        "description": "error",
                        "schema": {
                            "$ref": "#/definitions/minglesdk.ErrorResponse"
                        }
                    },
                    "502": {
                        "description": "error",
                        "schema": {
                            "$ref": "#/definitions/minglesdk.ErrorResponse"
                        }
                    }
                },
                "parameters": [
                    {
                        "in": "body",
                        "name": "request",
                        "required": true,
                        "schema": {
                            "$ref": "#/definitions/minglesdk.IssueCodeRequest"
                        }
                    }
                ]
            }
        },
        "/v1/register": {
            "post": {
                "summary": "Register",
                "tags": [
                    "Accounts"
                ],
                "produces": [
                    "application/json"
                ],
                "responses": {
                    "201": {
                        "description": "OK",
                        "schema": {
                            "$ref": "#/definitions/minglesdk.UserResponse"
                        }
                    },
                    "400": {
                        "description": "error",
                        "schema": {
                            "$ref": "#/definitions/minglesdk.ErrorResponse"
                        }
                    },
                    "409": {
                        "description": "error",
                        "schema": {
                            "$ref": "#/definitions/minglesdk.ErrorResponse"
                        }
                    }
                },
                "parameters": [
                    {
                        "in": "body",
                        "name": "request",
                        "required": true,
                        "schema": {
                            "$ref": "#/definitions/minglesdk.RegisterRequest"
                        }
                    }
                ]
            }
        },
        "/v1/session": {
            "post": {
                "summary": "Log in",
                "tags": [
                    "Accounts"
                ],
                "produces": [
                    "application/json"
                ],
                "responses": {
                    "200": {
                        "description": "OK",
                        "schema": {
                            "$ref": "#/definitions/minglesdk.UserResponse"
                        }
                    },
                    "401": {
                        "description": "error",
                        "schema": {
                            "$ref": "#/definitions/minglesdk.ErrorResponse"
                        }
                    }
                },
                "parameters": [
                    {
                        "in": "body",
                        "name": "request",
                        "required": true,
                        "schema": {
                            "$ref": "#/definitions/minglesdk.LoginRequest"
                        }
                    }
                ]
            },
            "delete": {
                "summary": "Log out",
                "tags": [
                    "Accounts"
                ],
                "produces": [
                    "application/json"
                ],
                "responses": {
                    "204": {
                        "description": "OK"
                    }
                }
            },
            "get": {
                "summary": "Current user",
                "tags": [
                    "Accounts"
                ],
                "produces": [
                    "application/json"
                ],
                "responses": {
                    "200": {
                        "description": "OK",
                        "schema": {
                            "$ref": "#/definitions/minglesdk.UserResponse"
                        }
                    },
                    "401": {
                        "description": "error",
                        "schema": {
                            "$ref": "#/definitions/minglesdk.ErrorResponse"
                        }
                    }
                }
            }
        },
        "/v1/me/location": {
            "put": {
                "summary": "Report device location",
                "tags": [
                    "Accounts"
                ],
                "produces": [
                    "application/json"
                ],
                "responses": {
                    "204": {
                        "description": "OK"
                    },
                    "400": {
                        "description": "error",
                        "schema": {
                            "$ref": "#/definitions/minglesdk.ErrorResponse"
                        }
                    }
                },
                "parameters": [
                    {
                        "in": "body",
                        "name": "request",
                        "required": true,
                        "schema": {
                            "$ref": "#/definitions/minglesdk.LocationRequest"
                        }
                    }
                ]
            }
        },
        "/v1/me": {
            "patch": {
                "summary": "Update profile",
                "tags": [
                    "Accounts"
                ],
                "produces": [
                    "application/json"
                ],
                "responses": {
                    "200": {
                        "description": "OK",
                        "schema": {
                            "$ref": "#/definitions/minglesdk.UserResponse"
                        }
                    },
                    "401": {
                        "description": "error",
                        "schema": {
                            "$ref": "#/definitions/minglesdk.ErrorResponse"
                        }
                    },
                    "409": {
                        "description": "error",
                        "schema": {
                            "$ref": "#/definitions/minglesdk.ErrorResponse"
                        }
                    }
                },
                "parameters": [
                    {
                        "in": "body",
                        "name": "request",
                        "required": true,
                        "schema": {
                            "$ref": "#/definitions/minglesdk.ProfileRequest"
                        }
                    }
                ]
            },
            "delete": {
                "summary": "Delete account",
                "tags": [
                    "Accounts"
                ],
                "produces": [
                    "application/json"
                ],
                "responses": {
                    "204": {
                        "description": "OK"
                    },
                    "401": {
                        "description": "error",
                        "schema": {
                            "$ref": "#/definitions/minglesdk.ErrorResponse"
                        }
                    }
                }
            }
        },
        "/v1/me/events": {
            "get": {
                "summary": "Events I host",
                "tags": [
                    "Accounts"
                ],
                "produces": [
                    "application/json"
                ],
                "responses": {
                    "200": {
                        "description": "OK",
                        "schema": {
                            "$ref": "#/definitions/minglesdk.EventListResponse"
                        }
                    },
                    "401": {
                        "description": "error",
                        "schema": {
                            "$ref": "#/definitions/minglesdk.ErrorResponse"
                        }
                    }
                }
            }
        },
        "/v1/events": {
            "post": {
                "summary": "Create event",
                "tags": [
                    "Events"
                ],
                "produces": [
                    "application/json"
                ],
                "responses": {
                    "201": {
                        "description": "OK",
                        "schema": {
                            "$ref": "#/definitions/minglesdk.EventResponse"
                        }
                    },
                    "400": {
                        "description": "error",
                        "schema": {
                            "$ref": "#/definitions/minglesdk.ErrorResponse"
                        }
                    },
                    "401": {
                        "description": "error",
                        "schema": {
                            "$ref": "#/definitions/minglesdk.ErrorResponse"
                        }
                    }
                },
                "parameters": [
                    {
                        "in": "body",
                        "name": "request",
                        "required": true,
                        "schema": {
                            "$ref": "#/definitions/minglesdk.EventRequest"
                        }
                    }
                ]
            },
            "get": {
                "summary": "Search events",
                "tags": [
                    "Events"
                ],
                "produces": [
                    "application/json"
                ],
                "responses": {
                    "200": {
                        "description": "OK",
                        "schema": {
                            "$ref": "#/definitions/minglesdk.EventListResponse"
                        }
                    },
                    "400": {
                        "description": "error",
                        "schema": {
                            "$ref": "#/definitions/minglesdk.ErrorResponse"
                        }
                    }
                },
                "parameters": [
                    {
                        "in": "query",
                        "name": "q",
                        "type": "string"
                    },
                    {
                        "description": "Maximum distance in miles, no limit when omitted",
                        "in": "query",
                        "name": "max_miles",
                        "type": "number"
                    },
                    {
                        "in": "query",
                        "name": "lat",
                        "type": "number"
                    },
                    {
                        "in": "query",
                        "name": "lon",
                        "type": "number"
                    },
                    {
                        "in": "header",
                        "name": "X-Guest-Email",
                        "type": "string",
                        "required": false
                    }
                ]
            }
        },
        "/v1/events/{id}": {
            "get": {
                "summary": "Event detail",
                "tags": [
                    "Events"
                ],
                "produces": [
                    "application/json"
                ],
                "responses": {
                    "200": {
                        "description": "OK",
                        "schema": {
                            "$ref": "#/definitions/minglesdk.EventResponse"
                        }
                    },
                    "404": {
                        "description": "error",
                        "schema": {
                            "$ref": "#/definitions/minglesdk.ErrorResponse"
                        }
                    }
                },
                "parameters": [
                    {
                        "in": "path",
                        "name": "id",
                        "type": "string",
                        "required": true
                    },
                    {
                        "in": "header",
                        "name": "X-Guest-Email",
                        "type": "string",
                        "required": false
                    }
                ]
            },
            "put": {
                "summary": "Edit event",
                "tags": [
                    "Events"
                ],
                "produces": [
                    "application/json"
                ],
                "responses": {
                    "200": {
                        "description": "OK",
                        "schema": {
                            "$ref": "#/definitions/minglesdk.EventResponse"
                        }
                    },
                    "400": {
                        "description": "error",
                        "schema": {
                            "$ref": "#/definitions/minglesdk.ErrorResponse"
                        }
                    },
                    "401": {
                        "description": "error",
                        "schema": {
                            "$ref": "#/definitions/minglesdk.ErrorResponse"
                        }
                    },
                    "403": {
                        "description": "error",
                        "schema": {
                            "$ref": "#/definitions/minglesdk.ErrorResponse"
                        }
                    },
                    "404": {
                        "description": "error",
                        "schema": {
                            "$ref": "#/definitions/minglesdk.ErrorResponse"
                        }
                    }
                },
                "parameters": [
                    {
                        "in": "path",
                        "name": "id",
                        "type": "string",
                        "required": true
                    },
                    {
                        "in": "body",
                        "name": "request",
                        "required": true,
                        "schema": {
                            "$ref": "#/definitions/minglesdk.EventRequest"
                        }
                    }
                ]
            },
            "delete": {
                "summary": "Delete event",
                "tags": [
                    "Events"
                ],
                "produces": [
                    "application/json"
                ],
                "responses": {
                    "204": {
                        "description": "OK"
                    },
                    "401": {
                        "description": "error",
                        "schema": {
                            "$ref": "#/definitions/minglesdk.ErrorResponse"
                        }
                    },
                    "403": {
                        "description": "error",
                        "schema": {
                            "$ref": "#/definitions/minglesdk.ErrorResponse"
                        }
                    },
                    "404": {
                        "description": "error",
                        "schema": {
                            "$ref": "#/definitions/minglesdk.ErrorResponse"
                        }
                    }
                },
                "parameters": [
                    {
                        "in": "path",
                        "name": "id",
                        "type": "string",
                        "required": true
                    }
                ]
            }
        },
        "/v1/events/{id}/share": {
            "get": {
                "summary": "Share text",
                "tags": [
                    "Events"
                ],
                "produces": [
                    "application/json"
                ],
                "responses": {
                    "200": {
                        "description": "OK",
                        "schema": {
                            "$ref": "#/definitions/minglesdk.ShareResponse"
                        }
                    },
                    "401": {
                        "description": "error",
                        "schema": {
                            "$ref": "#/definitions/minglesdk.ErrorResponse"
                        }
                    },
                    "403": {
                        "description": "error",
                        "schema": {
                            "$ref": "#/definitions/minglesdk.ErrorResponse"
                        }
                    },
                    "404": {
                        "description": "error",
                        "schema": {
                            "$ref": "#/definitions/minglesdk.ErrorResponse"
                        }
                    }
                },
                "parameters": [
                    {
                        "in": "path",
                        "name": "id",
                        "type": "string",
                        "required": true
                    }
                ]
            }
        },
        "/v1/events/{id}/rsvps": {
            "post": {
                "summary": "RSVP",
                "tags": [
                    "Guests"
                ],
                "produces": [
                    "application/json"
                ],
                "responses": {
                    "200": {
                        "description": "OK",
                        "schema": {
                            "$ref": "#/definitions/minglesdk.EventResponse"
                        }
                    },
                    "400": {
                        "description": "error",
                        "schema": {
                            "$ref": "#/definitions/minglesdk.ErrorResponse"
                        }
                    },
                    "401": {
                        "description": "error",
                        "schema": {
                            "$ref": "#/definitions/minglesdk.ErrorResponse"
                        }
                    },
                    "403": {
                        "description": "error",
                        "schema": {
                            "$ref": "#/definitions/minglesdk.ErrorResponse"
                        }
                    },
                    "404": {
                        "description": "error",
                        "schema": {
                            "$ref": "#/definitions/minglesdk.ErrorResponse"
                        }
                    }
                },
                "parameters": [
                    {
                        "in": "path",
                        "name": "id",
                        "type": "string",
                        "required": true
                    },
                    {
                        "in": "body",
                        "name": "request",
                        "required": true,
                        "schema": {
                            "$ref": "#/definitions/minglesdk.RSVPRequest"
                        }
                    }
                ]
            }
        },
        "/v1/events/{id}/access-requests": {
            "post": {
                "summary": "Request access",
                "tags": [
                    "Guests"
                ],
                "produces": [
                    "application/json"
                ],
                "responses": {
                    "202": {
                        "description": "OK"
                    },
                    "400": {
                        "description": "error",
                        "schema": {
                            "$ref": "#/definitions/minglesdk.ErrorResponse"
                        }
                    },
                    "404": {
                        "description": "error",
                        "schema": {
                            "$ref": "#/definitions/minglesdk.ErrorResponse"
                        }
                    },
                    "409": {
                        "description": "error",
                        "schema": {
                            "$ref": "#/definitions/minglesdk.ErrorResponse"
                        }
                    }
                },
                "parameters": [
                    {
                        "in": "path",
                        "name": "id",
                        "type": "string",
                        "required": true
                    },
                    {
                        "in": "header",
                        "name": "X-Guest-Email",
                        "type": "string",
                        "required": false
                    },
                    {
                        "in": "body",
                        "name": "request",
                        "required": true,
                        "schema": {
                            "$ref": "#/definitions/minglesdk.AccessRequestRequest"
                        }
                    }
                ]
            }
        },
        "/v1/events/{id}/access-requests/{requestID}/approve": {
            "post": {
                "summary": "Approve access request",
                "tags": [
                    "Guests"
                ],
                "produces": [
                    "application/json"
                ],
                "responses": {
                    "200": {
                        "description": "OK",
                        "schema": {
                            "$ref": "#/definitions/minglesdk.EventResponse"
                        }
                    },
                    "401": {
                        "description": "error",
                        "schema": {
                            "$ref": "#/definitions/minglesdk.ErrorResponse"
                        }
                    },
                    "403": {
                        "description": "error",
                        "schema": {
                            "$ref": "#/definitions/minglesdk.ErrorResponse"
                        }
                    },
                    "404": {
                        "description": "error",
                        "schema": {
                            "$ref": "#/definitions/minglesdk.ErrorResponse"
                        }
                    },
                    "409": {
                        "description": "error",
                        "schema": {
                            "$ref": "#/definitions/minglesdk.ErrorResponse"
                        }
                    }
                },
                "parameters": [
                    {
                        "in": "path",
                        "name": "id",
                        "type": "string",
                        "required": true
                    },
                    {
                        "in": "path",
                        "name": "requestID",
                        "type": "string",
                        "required": true
                    }
                ]
            }
        },
        "/v1/events/{id}/access-requests/{requestID}/deny": {
            "post": {
                "summary": "Deny access request",
                "tags": [
                    "Guests"
                ],
                "produces": [
                    "application/json"
                ],
                "responses": {
                    "200": {
                        "description": "OK",
                        "schema": {
                            "$ref": "#/definitions/minglesdk.EventResponse"
                        }
                    },
                    "401": {
                        "description": "error",
                        "schema": {
                            "$ref": "#/definitions/minglesdk.ErrorResponse"
                        }
                    },
                    "403": {
                        "description": "error",
                        "schema": {
                            "$ref": "#/definitions/minglesdk.ErrorResponse"
                        }
                    },
                    "404": {
                        "description": "error",
                        "schema": {
                            "$ref": "#/definitions/minglesdk.ErrorResponse"
                        }
                    },
                    "409": {
                        "description": "error",
                        "schema": {
                            "$ref": "#/definitions/minglesdk.ErrorResponse"
                        }
                    }
                },
                "parameters": [
                    {
                        "in": "path",
                        "name": "id",
                        "type": "string",
                        "required": true
                    },
                    {
                        "in": "path",
                        "name": "requestID",
                        "type": "string",
                        "required": true
                    }
                ]
            }
        },
        "/v1/admin/reset": {
            "post": {
                "summary": "Reset all data",
                "tags": [
                    "Admin"
                ],
                "produces": [
                    "application/json"
                ],
                "responses": {
                    "204": {
                        "description": "OK"
                    },
                    "401": {
                        "description": "error",
                        "schema": {
                            "$ref": "#/definitions/minglesdk.ErrorResponse"
                        }
                    },
                    "404": {
                        "description": "error",
                        "schema": {
                            "$ref": "#/definitions/minglesdk.ErrorResponse"
                        }
                    }
                },
                "parameters": [
                    {
                        "in": "header",
                        "name": "X-Admin-Token",
                        "type": "string",
                        "required": true
                    }
                ]
            }
        }
    },
    "definitions": {
        "minglesdk.ErrorResponse": {
            "type": "object",
            "properties": {
                "error": {
                    "type": "string"
                },
                "error_description": {
                    "type": "string"
                }
            }
        },
        "minglesdk.ValidationErrorResponse": {
            "type": "object",
            "properties": {
                "code": {
                    "type": "string"
                },
                "message": {
                    "type": "string"
                },
                "details": {
                    "type": "object",
                    "additionalProperties": {
                        "type": "string"
                    }
                }
            }
        },
        "minglesdk.HealthChecks": {
            "type": "object",
            "properties": {
                "storage": {
                    "type": "string"
                }
            }
        },
        "minglesdk.HealthResponse": {
            "type": "object",
            "properties": {
                "status": {
                    "type": "string"
                },
                "uptime": {
                    "type": "string"
                },
                "version": {
                    "type": "string"
                },
                "checks": {
                    "$ref": "#/definitions/minglesdk.HealthChecks"
                }
            }
        },
        "minglesdk.IssueCodeRequest": {
            "type": "object",
            "properties": {
                "email": {
                    "type": "string"
                },
                "username": {
                    "type": "string"
                }
            }
        },
        "minglesdk.IssueCodeResponse": {
            "type": "object",
            "properties": {
                "handle": {
                    "type": "string"
                },
                "expires_at": {
                    "type": "string",
                    "format": "date-time"
                },
                "resend_after": {
                    "type": "string",
                    "format": "date-time"
                }
            }
        },
        "minglesdk.RegisterRequest": {
            "type": "object",
            "properties": {
                "name": {
                    "type": "string"
                },
                "username": {
                    "type": "string"
                },
                "email": {
                    "type": "string"
                },
                "password": {
                    "type": "string"
                },
                "age": {
                    "type": "integer"
                },
                "code": {
                    "type": "string"
                }
            }
        },
        "minglesdk.LoginRequest": {
            "type": "object",
            "properties": {
                "username": {
                    "type": "string"
                },
                "password": {
                    "type": "string"
                }
            }
        },
        "minglesdk.Coordinate": {
            "type": "object",
            "properties": {
                "latitude": {
                    "type": "number"
                },
                "longitude": {
                    "type": "number"
                }
            }
        },
        "minglesdk.UserResponse": {
            "type": "object",
            "properties": {
                "id": {
                    "type": "string"
                },
                "name": {
                    "type": "string"
                },
                "username": {
                    "type": "string"
                },
                "email": {
                    "type": "string"
                },
                "age": {
                    "type": "integer"
                },
                "last_location": {
                    "$ref": "#/definitions/minglesdk.Coordinate"
                }
            }
        },
        "minglesdk.LocationRequest": {
            "type": "object",
            "properties": {
                "latitude": {
                    "type": "number"
                },
                "longitude": {
                    "type": "number"
                }
            }
        },
        "minglesdk.ProfileRequest": {
            "type": "object",
            "properties": {
                "name": {
                    "type": "string"
                },
                "email": {
                    "type": "string"
                },
                "age": {
                    "type": "integer"
                }
            }
        },
        "minglesdk.EventRequest": {
            "type": "object",
            "properties": {
                "title": {
                    "type": "string"
                },
                "date": {
                    "type": "string",
                    "format": "date-time"
                },
                "city": {
                    "type": "string"
                },
                "full_address": {
                    "type": "string"
                },
                "description": {
                    "type": "string"
                },
                "is_public": {
                    "type": "boolean"
                },
                "location": {
                    "$ref": "#/definitions/minglesdk.Coordinate"
                }
            }
        },
        "minglesdk.ForecastResponse": {
            "type": "object",
            "properties": {
                "high": {
                    "type": "number"
                },
                "low": {
                    "type": "number"
                },
                "summary": {
                    "type": "string"
                }
            }
        },
        "minglesdk.RSVPResponse": {
            "type": "object",
            "properties": {
                "email": {
                    "type": "string"
                },
                "name": {
                    "type": "string"
                },
                "age": {
                    "type": "integer"
                },
                "party_size": {
                    "type": "integer"
                },
                "status": {
                    "type": "string"
                }
            }
        },
        "minglesdk.AccessRequestResponse": {
            "type": "object",
            "properties": {
                "id": {
                    "type": "string"
                },
                "email": {
                    "type": "string"
                },
                "created_at": {
                    "type": "string",
                    "format": "date-time"
                },
                "status": {
                    "type": "string"
                }
            }
        },
        "minglesdk.RSVPSummaryResponse": {
            "type": "object",
            "properties": {
                "total": {
                    "type": "integer"
                },
                "going": {
                    "type": "integer"
                },
                "maybe": {
                    "type": "integer"
                },
                "not_going": {
                    "type": "integer"
                }
            }
        },
        "minglesdk.EventResponse": {
            "type": "object",
            "properties": {
                "id": {
                    "type": "string"
                },
                "host_id": {
                    "type": "string"
                },
                "host_name": {
                    "type": "string"
                },
                "title": {
                    "type": "string"
                },
                "date": {
                    "type": "string",
                    "format": "date-time"
                },
                "city": {
                    "type": "string"
                },
                "address": {
                    "type": "string"
                },
                "description": {
                    "type": "string"
                },
                "is_public": {
                    "type": "boolean"
                },
                "location": {
                    "$ref": "#/definitions/minglesdk.Coordinate"
                },
                "distance_miles": {
                    "type": "number"
                },
                "is_host": {
                    "type": "boolean"
                },
                "is_approved": {
                    "type": "boolean"
                },
                "can_rsvp": {
                    "type": "boolean"
                },
                "can_request_access": {
                    "type": "boolean"
                },
                "forecast": {
                    "$ref": "#/definitions/minglesdk.ForecastResponse"
                },
                "rsvps": {
                    "type": "array",
                    "items": {
                        "$ref": "#/definitions/minglesdk.RSVPResponse"
                    }
                },
                "access_requests": {
                    "type": "array",
                    "items": {
                        "$ref": "#/definitions/minglesdk.AccessRequestResponse"
                    }
                },
                "summary": {
                    "$ref": "#/definitions/minglesdk.RSVPSummaryResponse"
                }
            }
        },
        "minglesdk.EventListResponse": {
            "type": "object",
            "properties": {
                "events": {
                    "type": "array",
                    "items": {
                        "$ref": "#/definitions/minglesdk.EventResponse"
                    }
                }
            }
        },
        "minglesdk.ShareResponse": {
            "type": "object",
            "properties": {
                "message": {
                    "type": "string"
                }
            }
        },
        "minglesdk.RSVPRequest": {
            "type": "object",
            "properties": {
                "name": {
                    "type": "string"
                },
                "age": {
                    "type": "integer"
                },
                "party_size": {
                    "type": "integer"
                },
                "status": {
                    "type": "string",
                    "enum": [
                        "going",
                        "maybe",
                        "not_going"
                    ]
                }
            }
        },
        "minglesdk.AccessRequestRequest": {
            "type": "object",
            "properties": {
                "email": {
                    "type": "string"
                }
            }
        }
    }
}`

// SwaggerInfo holds exported Swagger Info so clients can modify it
var SwaggerInfo = &swag.Spec{
	Version:          "0.1.0",
	Host:             "localhost:8080",
	BasePath:         "/",
	Schemes:          []string{"http", "https"},
	Title:            "Mingle API",
	Description:      "Social events with private addresses. Hosts publish events showing only a city; the full address is revealed to guests the host approves.",
	InfoInstanceName: "swagger",
	SwaggerTemplate:  docTemplate,
	LeftDelim:        "{{",
	RightDelim:       "}}",
}

func init() {
	swag.Register(SwaggerInfo.InstanceName(), SwaggerInfo)
}
