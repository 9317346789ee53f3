package models

// User is the persisted row. PasswordHash is write-only and never leaves the store layer.
type User struct {
	ID           int64  `json:"id" db:"id"`
	Username     string `json:"username" db:"username"`
	PasswordHash string `json:"-" db:"password"` // don’t expose hash
}

// UserPublic is the projection of User that is safe to serialize.
type UserPublic struct {
	ID       int64  `json:"id" db:"id" example:"1"`
	Username string `json:"username" db:"username" example:"alice"`
}
