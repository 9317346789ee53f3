package service

// CreateUserParams carries the plaintext password to the hasher; it is never stored or logged.
type CreateUserParams struct {
	Username string
	Password string
}

// UpdateUserParams holds the only mutable user field.
type UpdateUserParams struct {
	Username string
}
