/*
Package shopsdk provides a client SDK for the shopfront REST API, along with
the request and response types shared by the server handlers.

# Client vs Session

The package is organized around two types:

  - Client: public operations (registration, login, password reset, catalogue reads)
  - Session: operations that need a session token

	client := shopsdk.NewClient("https://shop.example.com")

	// Register and verify through the emailed link
	_, err := client.Register(ctx, shopsdk.RegisterRequest{...})
	err = client.VerifyEmail(ctx, shopsdk.VerifyEmailRequest{Token: token, Password: pw, ConfirmPassword: pw})

	// Log in to obtain a session
	session, err := client.Login(ctx, email, pw)

	// Authenticated operations
	product, err := session.CreateProduct(ctx, shopsdk.ProductRequest{...})

A Session can also be built from a previously issued token with
Client.NewSession.

# Errors

Failed calls return *APIError carrying the HTTP status and the error code
written by the server (for example "bad_credentials" or "validation_error"):

	var apiErr *shopsdk.APIError
	if errors.As(err, &apiErr) && apiErr.Code == shopsdk.ErrorCodeNotVerified {
		// ask the user to check their inbox
	}

# Validation

Request types carry a Validate method returning field-level messages. The
server runs the same checks before handling a request.
*/
package shopsdk
