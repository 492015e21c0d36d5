// Package model holds the domain entities persisted by the repositories.
package model

import "time"

// User is an authenticated operator. Password holds the argon2id hash and is
// never serialized.
type User struct {
	ID        int64     `json:"id"`
	Login     string    `json:"login"`
	Password  string    `json:"-"`
	Name      string    `json:"name"`
	Role      string    `json:"role"`
	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`

	Links     []Link    `json:"links,omitempty"`
	Companies []Company `json:"companies,omitempty"`
}

// Link is a short-link redirect record. Link holds the redirect slug and is
// globally unique; Transition counts clicks.
type Link struct {
	ID          int64     `json:"id"`
	UserID      int64     `json:"-"`
	Link        string    `json:"link"`
	Description string    `json:"description"`
	Transition  int       `json:"transition"`
	CreatedAt   time.Time `json:"createdAt"`
	UpdatedAt   time.Time `json:"updatedAt"`

	User      *User     `json:"user,omitempty"`
	Companies []Company `json:"companies,omitempty"`
}

// Company groups links under a redirect URI of its own.
type Company struct {
	ID          int64     `json:"id"`
	UserID      int64     `json:"-"`
	Name        string    `json:"name"`
	URI         string    `json:"uri"`
	Description string    `json:"description"`
	CreatedAt   time.Time `json:"createdAt"`
	UpdatedAt   time.Time `json:"updatedAt"`

	User  *User  `json:"user,omitempty"`
	Links []Link `json:"links,omitempty"`
}

// Mail is a mailing-list entry. Mail and Code are both globally unique.
type Mail struct {
	ID     int64  `json:"id"`
	UserID int64  `json:"-"`
	Mail   string `json:"mail"`
	Code   string `json:"code"`
	Source string `json:"source"`
	Geo    string `json:"geo"`
	Name   string `json:"name"`
	Sex    string `json:"sex"`
	Age    int    `json:"age"`
	Status bool   `json:"status"`

	User *User `json:"user,omitempty"`
}
