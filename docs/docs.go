// Package docs registers the OpenAPI description served at /api/swagger.
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
		"/auth/signup": {
			"post": {
				"tags": [
					"auth"
				],
				"summary": "Register a player account",
				"produces": [
					"application/json"
				],
				"parameters": [
					{
						"in": "body",
						"name": "request",
						"required": true,
						"schema": {
							"$ref": "#/definitions/service.SignupInput"
						}
					}
				],
				"responses": {
					"201": {
						"description": "OK",
						"schema": {
							"$ref": "#/definitions/service.UserSession"
						}
					},
					"400": {
						"description": "Error",
						"schema": {
							"$ref": "#/definitions/models.ErrorResponse"
						}
					},
					"409": {
						"description": "Error",
						"schema": {
							"$ref": "#/definitions/models.ErrorResponse"
						}
					}
				}
			}
		},
		"/auth/login": {
			"post": {
				"tags": [
					"auth"
				],
				"summary": "Player login",
				"produces": [
					"application/json"
				],
				"parameters": [
					{
						"in": "body",
						"name": "request",
						"required": true,
						"schema": {
							"$ref": "#/definitions/service.LoginInput"
						}
					}
				],
				"responses": {
					"200": {
						"description": "OK",
						"schema": {
							"$ref": "#/definitions/service.UserSession"
						}
					},
					"401": {
						"description": "Error",
						"schema": {
							"$ref": "#/definitions/models.ErrorResponse"
						}
					}
				}
			}
		},
		"/admin/login": {
			"post": {
				"tags": [
					"admin"
				],
				"summary": "Admin login",
				"produces": [
					"application/json"
				],
				"parameters": [
					{
						"in": "body",
						"name": "request",
						"required": true,
						"schema": {
							"$ref": "#/definitions/service.AdminCredentials"
						}
					}
				],
				"responses": {
					"200": {
						"description": "OK",
						"schema": {
							"$ref": "#/definitions/service.AdminSession"
						}
					},
					"401": {
						"description": "Error",
						"schema": {
							"$ref": "#/definitions/models.ErrorResponse"
						}
					}
				}
			}
		},
		"/admin/logout": {
			"post": {
				"tags": [
					"admin"
				],
				"summary": "Admin logout",
				"produces": [
					"application/json"
				],
				"security": [
					{
						"BearerAuth": []
					}
				],
				"responses": {
					"200": {
						"description": "OK"
					}
				}
			}
		},
		"/games": {
			"get": {
				"tags": [
					"games"
				],
				"summary": "List published games",
				"produces": [
					"application/json"
				],
				"parameters": [
					{
						"type": "string",
						"name": "search",
						"in": "query"
					}
				],
				"responses": {
					"200": {
						"description": "OK",
						"schema": {
							"type": "array",
							"items": {
								"$ref": "#/definitions/models.Game"
							}
						}
					}
				}
			},
			"post": {
				"tags": [
					"games"
				],
				"summary": "Create a game (admin)",
				"produces": [
					"application/json"
				],
				"parameters": [
					{
						"in": "body",
						"name": "request",
						"required": true,
						"schema": {
							"$ref": "#/definitions/service.CreateGameInput"
						}
					}
				],
				"security": [
					{
						"BearerAuth": []
					}
				],
				"responses": {
					"201": {
						"description": "OK",
						"schema": {
							"$ref": "#/definitions/models.Game"
						}
					},
					"400": {
						"description": "Error",
						"schema": {
							"$ref": "#/definitions/models.ErrorResponse"
						}
					}
				}
			}
		},
		"/games/admin/list": {
			"get": {
				"tags": [
					"games"
				],
				"summary": "List every game with paging and sorting (admin)",
				"produces": [
					"application/json"
				],
				"parameters": [
					{
						"type": "string",
						"name": "search",
						"in": "query"
					},
					{
						"type": "integer",
						"name": "page",
						"in": "query"
					},
					{
						"type": "integer",
						"name": "limit",
						"in": "query"
					},
					{
						"type": "string",
						"name": "sortBy",
						"in": "query"
					},
					{
						"type": "string",
						"name": "sortOrder",
						"in": "query"
					}
				],
				"security": [
					{
						"BearerAuth": []
					}
				],
				"responses": {
					"200": {
						"description": "OK",
						"schema": {
							"$ref": "#/definitions/service.GamePage"
						}
					}
				}
			}
		},
		"/games/new": {
			"get": {
				"tags": [
					"games"
				],
				"summary": "Newest published games",
				"produces": [
					"application/json"
				],
				"parameters": [
					{
						"type": "integer",
						"name": "limit",
						"in": "query"
					}
				],
				"responses": {
					"200": {
						"description": "OK"
					}
				}
			}
		},
		"/games/trending": {
			"get": {
				"tags": [
					"games"
				],
				"summary": "Trending published games",
				"produces": [
					"application/json"
				],
				"parameters": [
					{
						"type": "integer",
						"name": "limit",
						"in": "query"
					}
				],
				"responses": {
					"200": {
						"description": "OK"
					}
				}
			}
		},
		"/games/{id}": {
			"get": {
				"tags": [
					"games"
				],
				"summary": "Game details",
				"produces": [
					"application/json"
				],
				"parameters": [
					{
						"type": "string",
						"description": "Game ID",
						"name": "id",
						"in": "path",
						"required": true
					}
				],
				"responses": {
					"200": {
						"description": "OK",
						"schema": {
							"$ref": "#/definitions/models.Game"
						}
					},
					"404": {
						"description": "Error",
						"schema": {
							"$ref": "#/definitions/models.ErrorResponse"
						}
					}
				}
			},
			"patch": {
				"tags": [
					"games"
				],
				"summary": "Partially update a game (admin)",
				"produces": [
					"application/json"
				],
				"parameters": [
					{
						"type": "string",
						"description": "Game ID",
						"name": "id",
						"in": "path",
						"required": true
					},
					{
						"in": "body",
						"name": "request",
						"required": true,
						"schema": {
							"$ref": "#/definitions/service.UpdateGameInput"
						}
					}
				],
				"security": [
					{
						"BearerAuth": []
					}
				],
				"responses": {
					"200": {
						"description": "OK",
						"schema": {
							"$ref": "#/definitions/models.Game"
						}
					},
					"404": {
						"description": "Error",
						"schema": {
							"$ref": "#/definitions/models.ErrorResponse"
						}
					}
				}
			},
			"delete": {
				"tags": [
					"games"
				],
				"summary": "Delete a game with its reactions (admin)",
				"produces": [
					"application/json"
				],
				"parameters": [
					{
						"type": "string",
						"description": "Game ID",
						"name": "id",
						"in": "path",
						"required": true
					}
				],
				"security": [
					{
						"BearerAuth": []
					}
				],
				"responses": {
					"200": {
						"description": "OK"
					},
					"404": {
						"description": "Error",
						"schema": {
							"$ref": "#/definitions/models.ErrorResponse"
						}
					}
				}
			}
		},
		"/games/{id}/like": {
			"post": {
				"tags": [
					"reactions"
				],
				"summary": "Like a game",
				"produces": [
					"application/json"
				],
				"parameters": [
					{
						"type": "string",
						"description": "Game ID",
						"name": "id",
						"in": "path",
						"required": true
					}
				],
				"security": [
					{
						"BearerAuth": []
					}
				],
				"responses": {
					"200": {
						"description": "OK",
						"schema": {
							"$ref": "#/definitions/service.ReactionResult"
						}
					},
					"401": {
						"description": "Error",
						"schema": {
							"$ref": "#/definitions/models.ErrorResponse"
						}
					},
					"404": {
						"description": "Error",
						"schema": {
							"$ref": "#/definitions/models.ErrorResponse"
						}
					}
				}
			}
		},
		"/games/{id}/dislike": {
			"post": {
				"tags": [
					"reactions"
				],
				"summary": "Dislike a game",
				"produces": [
					"application/json"
				],
				"parameters": [
					{
						"type": "string",
						"description": "Game ID",
						"name": "id",
						"in": "path",
						"required": true
					}
				],
				"security": [
					{
						"BearerAuth": []
					}
				],
				"responses": {
					"200": {
						"description": "OK",
						"schema": {
							"$ref": "#/definitions/service.ReactionResult"
						}
					},
					"401": {
						"description": "Error",
						"schema": {
							"$ref": "#/definitions/models.ErrorResponse"
						}
					},
					"404": {
						"description": "Error",
						"schema": {
							"$ref": "#/definitions/models.ErrorResponse"
						}
					}
				}
			}
		},
		"/games/{id}/reaction": {
			"delete": {
				"tags": [
					"reactions"
				],
				"summary": "Remove the caller's reaction",
				"produces": [
					"application/json"
				],
				"parameters": [
					{
						"type": "string",
						"description": "Game ID",
						"name": "id",
						"in": "path",
						"required": true
					}
				],
				"security": [
					{
						"BearerAuth": []
					}
				],
				"responses": {
					"200": {
						"description": "OK",
						"schema": {
							"$ref": "#/definitions/service.ReactionResult"
						}
					},
					"404": {
						"description": "Error",
						"schema": {
							"$ref": "#/definitions/models.ErrorResponse"
						}
					}
				}
			}
		},
		"/games/{id}/reactions": {
			"get": {
				"tags": [
					"reactions"
				],
				"summary": "Like and dislike counts plus the caller's own reaction",
				"produces": [
					"application/json"
				],
				"parameters": [
					{
						"type": "string",
						"description": "Game ID",
						"name": "id",
						"in": "path",
						"required": true
					}
				],
				"responses": {
					"200": {
						"description": "OK",
						"schema": {
							"$ref": "#/definitions/models.ReactionStats"
						}
					},
					"404": {
						"description": "Error",
						"schema": {
							"$ref": "#/definitions/models.ErrorResponse"
						}
					}
				}
			}
		},
		"/games/{id}/increment-play-count": {
			"post": {
				"tags": [
					"games"
				],
				"summary": "Record one play",
				"produces": [
					"application/json"
				],
				"parameters": [
					{
						"type": "string",
						"description": "Game ID",
						"name": "id",
						"in": "path",
						"required": true
					}
				],
				"responses": {
					"200": {
						"description": "OK"
					},
					"404": {
						"description": "Error",
						"schema": {
							"$ref": "#/definitions/models.ErrorResponse"
						}
					}
				}
			}
		},
		"/categories": {
			"get": {
				"tags": [
					"categories"
				],
				"summary": "List categories",
				"produces": [
					"application/json"
				],
				"responses": {
					"200": {
						"description": "OK"
					}
				}
			},
			"post": {
				"tags": [
					"categories"
				],
				"summary": "Create a category (admin)",
				"produces": [
					"application/json"
				],
				"parameters": [
					{
						"in": "body",
						"name": "request",
						"required": true,
						"schema": {
							"$ref": "#/definitions/service.CategoryInput"
						}
					}
				],
				"security": [
					{
						"BearerAuth": []
					}
				],
				"responses": {
					"201": {
						"description": "OK",
						"schema": {
							"$ref": "#/definitions/models.Category"
						}
					}
				}
			}
		},
		"/categories/{id}": {
			"get": {
				"tags": [
					"categories"
				],
				"summary": "Category details",
				"produces": [
					"application/json"
				],
				"parameters": [
					{
						"type": "string",
						"description": "Category ID",
						"name": "id",
						"in": "path",
						"required": true
					}
				],
				"responses": {
					"200": {
						"description": "OK",
						"schema": {
							"$ref": "#/definitions/models.Category"
						}
					},
					"404": {
						"description": "Error",
						"schema": {
							"$ref": "#/definitions/models.ErrorResponse"
						}
					}
				}
			},
			"patch": {
				"tags": [
					"categories"
				],
				"summary": "Update a category (admin)",
				"produces": [
					"application/json"
				],
				"parameters": [
					{
						"type": "string",
						"description": "Category ID",
						"name": "id",
						"in": "path",
						"required": true
					},
					{
						"in": "body",
						"name": "request",
						"required": true,
						"schema": {
							"$ref": "#/definitions/service.CategoryInput"
						}
					}
				],
				"security": [
					{
						"BearerAuth": []
					}
				],
				"responses": {
					"200": {
						"description": "OK",
						"schema": {
							"$ref": "#/definitions/models.Category"
						}
					}
				}
			},
			"delete": {
				"tags": [
					"categories"
				],
				"summary": "Delete a category (admin)",
				"produces": [
					"application/json"
				],
				"parameters": [
					{
						"type": "string",
						"description": "Category ID",
						"name": "id",
						"in": "path",
						"required": true
					}
				],
				"security": [
					{
						"BearerAuth": []
					}
				],
				"responses": {
					"200": {
						"description": "OK"
					}
				}
			}
		},
		"/pages": {
			"get": {
				"tags": [
					"pages"
				],
				"summary": "List published pages",
				"produces": [
					"application/json"
				],
				"responses": {
					"200": {
						"description": "OK"
					}
				}
			},
			"post": {
				"tags": [
					"pages"
				],
				"summary": "Create a page (admin)",
				"produces": [
					"application/json"
				],
				"parameters": [
					{
						"in": "body",
						"name": "request",
						"required": true,
						"schema": {
							"$ref": "#/definitions/service.PageInput"
						}
					}
				],
				"security": [
					{
						"BearerAuth": []
					}
				],
				"responses": {
					"201": {
						"description": "OK",
						"schema": {
							"$ref": "#/definitions/models.Page"
						}
					},
					"409": {
						"description": "Error",
						"schema": {
							"$ref": "#/definitions/models.ErrorResponse"
						}
					}
				}
			}
		},
		"/pages/admin/list": {
			"get": {
				"tags": [
					"pages"
				],
				"summary": "List every page including drafts (admin)",
				"produces": [
					"application/json"
				],
				"security": [
					{
						"BearerAuth": []
					}
				],
				"responses": {
					"200": {
						"description": "OK"
					}
				}
			}
		},
		"/pages/admin/{id}": {
			"get": {
				"tags": [
					"pages"
				],
				"summary": "Page details by ID including drafts (admin)",
				"produces": [
					"application/json"
				],
				"parameters": [
					{
						"type": "string",
						"description": "Page ID",
						"name": "id",
						"in": "path",
						"required": true
					}
				],
				"security": [
					{
						"BearerAuth": []
					}
				],
				"responses": {
					"200": {
						"description": "OK",
						"schema": {
							"$ref": "#/definitions/models.Page"
						}
					},
					"404": {
						"description": "Error",
						"schema": {
							"$ref": "#/definitions/models.ErrorResponse"
						}
					}
				}
			}
		},
		"/pages/slug/{slug}": {
			"get": {
				"tags": [
					"pages"
				],
				"summary": "Published page by slug",
				"produces": [
					"application/json"
				],
				"parameters": [
					{
						"type": "string",
						"name": "slug",
						"in": "path",
						"required": true
					}
				],
				"responses": {
					"200": {
						"description": "OK",
						"schema": {
							"$ref": "#/definitions/models.Page"
						}
					},
					"404": {
						"description": "Error",
						"schema": {
							"$ref": "#/definitions/models.ErrorResponse"
						}
					}
				}
			}
		},
		"/pages/{id}": {
			"get": {
				"tags": [
					"pages"
				],
				"summary": "Published page details by ID",
				"produces": [
					"application/json"
				],
				"parameters": [
					{
						"type": "string",
						"description": "Page ID",
						"name": "id",
						"in": "path",
						"required": true
					}
				],
				"responses": {
					"200": {
						"description": "OK",
						"schema": {
							"$ref": "#/definitions/models.Page"
						}
					},
					"404": {
						"description": "Error",
						"schema": {
							"$ref": "#/definitions/models.ErrorResponse"
						}
					}
				}
			},
			"patch": {
				"tags": [
					"pages"
				],
				"summary": "Update a page (admin)",
				"produces": [
					"application/json"
				],
				"parameters": [
					{
						"type": "string",
						"description": "Page ID",
						"name": "id",
						"in": "path",
						"required": true
					},
					{
						"in": "body",
						"name": "request",
						"required": true,
						"schema": {
							"$ref": "#/definitions/service.PageInput"
						}
					}
				],
				"security": [
					{
						"BearerAuth": []
					}
				],
				"responses": {
					"200": {
						"description": "OK",
						"schema": {
							"$ref": "#/definitions/models.Page"
						}
					}
				}
			},
			"delete": {
				"tags": [
					"pages"
				],
				"summary": "Delete a page (admin)",
				"produces": [
					"application/json"
				],
				"parameters": [
					{
						"type": "string",
						"description": "Page ID",
						"name": "id",
						"in": "path",
						"required": true
					}
				],
				"security": [
					{
						"BearerAuth": []
					}
				],
				"responses": {
					"200": {
						"description": "OK"
					}
				}
			}
		}
	},
	"definitions": {
		"models.ErrorResponse": {
			"type": "object",
			"properties": {
				"error": {
					"type": "string"
				},
				"code": {
					"type": "string"
				},
				"details": {
					"type": "string"
				}
			}
		},
		"models.Category": {
			"type": "object",
			"properties": {
				"id": {
					"type": "string"
				},
				"name": {
					"type": "string"
				},
				"icon": {
					"type": "string"
				},
				"createdAt": {
					"type": "string"
				},
				"updatedAt": {
					"type": "string"
				}
			}
		},
		"models.Game": {
			"type": "object",
			"properties": {
				"id": {
					"type": "string"
				},
				"title": {
					"type": "string"
				},
				"description": {
					"type": "string"
				},
				"rating": {
					"type": "number"
				},
				"icon": {
					"type": "string"
				},
				"video": {
					"type": "string"
				},
				"url": {
					"type": "string"
				},
				"publishStatus": {
					"type": "boolean"
				},
				"isTrending": {
					"type": "boolean"
				},
				"playCount": {
					"type": "integer"
				},
				"publishedAt": {
					"type": "string"
				},
				"createdAt": {
					"type": "string"
				},
				"updatedAt": {
					"type": "string"
				},
				"categories": {
					"type": "array",
					"items": {
						"$ref": "#/definitions/models.Category"
					}
				}
			}
		},
		"models.Page": {
			"type": "object",
			"properties": {
				"id": {
					"type": "string"
				},
				"title": {
					"type": "string"
				},
				"slug": {
					"type": "string"
				},
				"htmlContent": {
					"type": "string"
				},
				"publishStatus": {
					"type": "boolean"
				},
				"createdAt": {
					"type": "string"
				},
				"updatedAt": {
					"type": "string"
				}
			}
		},
		"models.ReactionStats": {
			"type": "object",
			"properties": {
				"likeCount": {
					"type": "integer"
				},
				"dislikeCount": {
					"type": "integer"
				},
				"userReaction": {
					"type": "string",
					"enum": [
						"like",
						"dislike"
					]
				}
			}
		},
		"models.User": {
			"type": "object",
			"properties": {
				"id": {
					"type": "string"
				},
				"email": {
					"type": "string"
				},
				"name": {
					"type": "string"
				},
				"createdAt": {
					"type": "string"
				},
				"updatedAt": {
					"type": "string"
				}
			}
		},
		"models.Admin": {
			"type": "object",
			"properties": {
				"id": {
					"type": "string"
				},
				"username": {
					"type": "string"
				},
				"createdAt": {
					"type": "string"
				},
				"updatedAt": {
					"type": "string"
				}
			}
		},
		"service.ReactionResult": {
			"type": "object",
			"properties": {
				"message": {
					"type": "string"
				},
				"reactionType": {
					"type": "string",
					"enum": [
						"like",
						"dislike"
					]
				}
			}
		},
		"service.SignupInput": {
			"type": "object",
			"properties": {
				"email": {
					"type": "string"
				},
				"name": {
					"type": "string"
				},
				"password": {
					"type": "string"
				}
			}
		},
		"service.LoginInput": {
			"type": "object",
			"properties": {
				"email": {
					"type": "string"
				},
				"password": {
					"type": "string"
				}
			}
		},
		"service.AdminCredentials": {
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
		"service.UserSession": {
			"type": "object",
			"properties": {
				"token": {
					"type": "string"
				},
				"expiresAt": {
					"type": "string"
				},
				"user": {
					"$ref": "#/definitions/models.User"
				}
			}
		},
		"service.AdminSession": {
			"type": "object",
			"properties": {
				"token": {
					"type": "string"
				},
				"expiresAt": {
					"type": "string"
				},
				"admin": {
					"$ref": "#/definitions/models.Admin"
				}
			}
		},
		"service.CreateGameInput": {
			"type": "object",
			"properties": {
				"title": {
					"type": "string"
				},
				"description": {
					"type": "string"
				},
				"rating": {
					"type": "number"
				},
				"icon": {
					"type": "string"
				},
				"video": {
					"type": "string"
				},
				"url": {
					"type": "string"
				},
				"publishStatus": {
					"type": "boolean"
				},
				"isTrending": {
					"type": "boolean"
				},
				"categoryIds": {
					"type": "array",
					"items": {
						"type": "string"
					}
				}
			}
		},
		"service.UpdateGameInput": {
			"type": "object",
			"properties": {
				"title": {
					"type": "string"
				},
				"description": {
					"type": "string"
				},
				"rating": {
					"type": "number"
				},
				"icon": {
					"type": "string"
				},
				"video": {
					"type": "string"
				},
				"url": {
					"type": "string"
				},
				"publishStatus": {
					"type": "boolean"
				},
				"isTrending": {
					"type": "boolean"
				},
				"categoryIds": {
					"type": "array",
					"items": {
						"type": "string"
					}
				}
			}
		},
		"service.GamePage": {
			"type": "object",
			"properties": {
				"data": {
					"type": "array",
					"items": {
						"$ref": "#/definitions/models.Game"
					}
				},
				"total": {
					"type": "integer"
				},
				"page": {
					"type": "integer"
				},
				"limit": {
					"type": "integer"
				}
			}
		},
		"service.CategoryInput": {
			"type": "object",
			"properties": {
				"name": {
					"type": "string"
				},
				"icon": {
					"type": "string"
				}
			}
		},
		"service.PageInput": {
			"type": "object",
			"properties": {
				"title": {
					"type": "string"
				},
				"slug": {
					"type": "string"
				},
				"htmlContent": {
					"type": "string"
				},
				"publishStatus": {
					"type": "boolean"
				}
			}
		}
	},
	"securityDefinitions": {
		"BearerAuth": {
			"description": "Type \"Bearer\" followed by a space and the JWT.",
			"type": "apiKey",
			"name": "Authorization",
			"in": "header"
		}
	}
}`

// SwaggerInfo holds exported Swagger Info so clients can modify it
var SwaggerInfo = &swag.Spec{
	Version:          "1.0",
	Host:             "",
	BasePath:         "/api",
	Schemes:          []string{},
	Title:            "Playhub API",
	Description:      "Casual games catalog with a per-user like/dislike ledger.",
	InfoInstanceName: "swagger",
	SwaggerTemplate:  docTemplate,
	LeftDelim:        "{{",
	RightDelim:       "}}",
}

func init() {
	swag.Register(SwaggerInfo.InstanceName(), SwaggerInfo)
}
