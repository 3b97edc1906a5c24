package errors

// IsErrNotFound is a helper method for determining if an error indicates a missing resource
func IsErrNotFound(err error) bool {
	type notFound interface {
		NotFoundError() bool
	}
	te, ok := err.(notFound)
	return ok && te.NotFoundError()
}

// IsErrInvalidSignature is a helper method for determining if an error indicates there was an invalid signature
func IsErrInvalidSignature(err error) bool {
	type invalidSignature interface {
		InvalidSignature() bool
	}
	te, ok := err.(invalidSignature)
	return ok && te.InvalidSignature()
}

// IsErrBusinessDecline is a helper method for determining if an error is a well formed gateway decline
func IsErrBusinessDecline(err error) bool {
	type businessDecline interface {
		BusinessDecline() bool
	}
	te, ok := err.(businessDecline)
	return ok && te.BusinessDecline()
}
