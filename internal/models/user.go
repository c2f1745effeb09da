package models

import (
	"time"
)

// User is a row of the member/identity collection.
type User struct {
	ID        string    `json:"_id" db:"id"`
	Fullname  string    `json:"fullname" db:"fullname"`
	ImgURL    string    `json:"imgUrl" db:"img_url"`
	CreatedAt time.Time `json:"createdAt" db:"created_at"`
}
