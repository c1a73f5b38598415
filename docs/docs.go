// Package docs registers the swagger spec for the administrator REST
// surface. It is hand-written in the shape `swag init` would normally
// generate, since the teacher wires a generated docs package
// (config/swagger) the same way but that package's source was not
// part of the retrieved copy.
package docs

import "github.com/swaggo/swag"

const docTemplate = `{
    "swagger": "2.0",
    "info": {
        "title": "{{.Title}}",
        "version": "{{.Version}}"
    },
    "host": "{{.Host}}",
    "basePath": "{{.BasePath}}",
    "paths": {
        "/api/rooms/{code}/questions": {
            "get": {"summary": "List a room's questions", "responses": {"200": {"description": "ok"}}},
            "post": {"summary": "Append a question to a room's bank (administrator, lobby only)", "responses": {"200": {"description": "ok"}}}
        },
        "/api/rooms/{code}/game/start": {
            "post": {"summary": "Start the session (administrator)", "responses": {"200": {"description": "ok"}}}
        },
        "/api/rooms/{code}/game/next": {
            "post": {"summary": "Advance to the next question or phase (administrator)", "responses": {"200": {"description": "ok"}}}
        },
        "/api/rooms/{code}/game/end": {
            "post": {"summary": "End the session and return to the lobby (administrator)", "responses": {"200": {"description": "ok"}}}
        },
        "/api/rooms/{code}/game/back-to-lobby": {
            "post": {"summary": "Return from the leaderboard to the lobby, resetting scores and waiting flags (administrator)", "responses": {"200": {"description": "ok"}}}
        },
        "/api/rooms/{code}/game/state": {
            "get": {"summary": "Fetch the current session state", "responses": {"200": {"description": "ok"}}}
        },
        "/api/rooms/{code}": {
            "delete": {"summary": "Destroy a room (administrator)", "responses": {"200": {"description": "ok"}}}
        },
        "/api/rooms/{code}/members/{id}": {
            "delete": {"summary": "Kick a member (administrator)", "responses": {"200": {"description": "ok"}}}
        }
    }
}`

// SwaggerInfo holds exported Swagger Info so other packages can
// modify it, per the swag-generated convention.
var SwaggerInfo = &swag.Spec{
	Version:     "1.0",
	Host:        "",
	BasePath:    "/",
	Schemes:     []string{},
	Title:       "Trivion API",
	Description: "Real-time multiplayer quiz service administrator REST surface.",
}

func init() {
	SwaggerInfo.InfoInstanceName = "swagger"
	SwaggerInfo.SwaggerTemplate = docTemplate
	swag.Register(SwaggerInfo.InstanceName(), SwaggerInfo)
}
