package util

import (
	"learnhub_backend/internal/model"
	"time"
)

const time60m = 60 * time.Minute

func testUser() *model.User {
	u := &model.User{Email: "ada@example.com", Role: model.Tutor}
	u.ID = 7
	return u
}
