// Package restie is an HTTP client for REST APIs.
//
// A Client turns a Request, which is a bag of query, form, header, URL
// segment, body and file parameters, into an *http.Request, sends it and
// decodes the response with the serializer registered for its content type:
//
//	client, err := restie.New(restie.Options{BaseURL: "https://api.example.com"})
//	if err != nil {
//		return err
//	}
//	req := restie.NewRequest("GET", "users/{id}").
//		AddURLSegment("id", 42).
//		AddQueryParameter("fields", "name,email")
//	resp, err := restie.Execute[User](ctx, client, req)
//
// Transport failures and undecodable bodies are recorded on the Response
// (ResponseStatus, ErrorMessage, ErrorException) instead of being returned,
// unless Options.ThrowOnAnyError or Options.ThrowOnDeserializationError asks
// for an error.
package restie
