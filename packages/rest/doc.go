// Package rest is the request layer beneath generated REST API clients.
//
// A Client validates a Request, picks an encoding from the declared
// Content-Type, hands the prepared request to a Transport and turns both
// transport failures and non-2xx responses into *ApiError.
//
// Encodings for body-carrying verbs (POST, PUT, PATCH, OPTIONS, DELETE):
//   - Content-Type containing "json": Body is JSON-encoded
//   - application/x-www-form-urlencoded: PostParams as form fields
//   - multipart/form-data: PostParams as multipart fields
//   - anything else: Body must be a string and is sent as is
//
// GET and HEAD never carry a body; QueryParams are handed to the Transport
// as URL fields.
package rest
