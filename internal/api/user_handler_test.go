package api

import (
	"bytes"
	"encoding/json"
	"fmt"
	"net/http"
	"testing"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	"cvhub/internal/database"
	"cvhub/internal/role"
)

func seedUser(t *testing.T, db *gorm.DB, email string, roles []string) database.User {
	t.Helper()
	user := database.User{
		Email:        email,
		PasswordHash: "hash",
		FirstName:    "Test",
		LastName:     "User",
		Roles:        roles,
	}
	if err := db.Create(&user).Error; err != nil {
		t.Fatalf("seed user: %v", err)
	}
	return user
}

func TestCreateUser(t *testing.T) {
	db := newTestDB(t)
	h := NewUserHandler(db, nil)

	payload, _ := json.Marshal(createUserRequest{
		Email:     "Recruiter@Example.com",
		Password:  "secret-pass",
		FirstName: "Rita",
		LastName:  "Recruiter",
		Roles:     []string{role.Recruiter},
	})
	c, w := authedContext(t, 1, http.MethodPost, "/users", bytes.NewBuffer(payload), "application/json")

	h.CreateUser(c)

	if w.Code != http.StatusCreated {
		t.Fatalf("expected 201, got %d body=%s", w.Code, w.Body.String())
	}

	var user database.User
	if err := db.Where("email = ?", "recruiter@example.com").First(&user).Error; err != nil {
		t.Fatalf("load user: %v", err)
	}
	if user.PasswordHash == "secret-pass" {
		t.Fatal("password stored in plaintext")
	}
	if len(user.Roles) != 1 || user.Roles[0] != role.Recruiter {
		t.Fatalf("roles not stored: %v", user.Roles)
	}
}

func TestCreateUser_RejectsUnknownRole(t *testing.T) {
	db := newTestDB(t)
	h := NewUserHandler(db, nil)

	payload, _ := json.Marshal(createUserRequest{
		Email:     "x@example.com",
		Password:  "secret-pass",
		FirstName: "Xavier",
		LastName:  "Xenon",
		Roles:     []string{"superuser"},
	})
	c, w := authedContext(t, 1, http.MethodPost, "/users", bytes.NewBuffer(payload), "application/json")

	h.CreateUser(c)

	if w.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d body=%s", w.Code, w.Body.String())
	}
}

func TestCreateUser_Conflict(t *testing.T) {
	db := newTestDB(t)
	seedUser(t, db, "taken@example.com", []string{role.Candidate})
	h := NewUserHandler(db, nil)

	payload, _ := json.Marshal(createUserRequest{
		Email:     "taken@example.com",
		Password:  "secret-pass",
		FirstName: "Tara",
		LastName:  "Taken",
		Roles:     []string{role.Candidate},
	})
	c, w := authedContext(t, 1, http.MethodPost, "/users", bytes.NewBuffer(payload), "application/json")

	h.CreateUser(c)

	if w.Code != http.StatusConflict {
		t.Fatalf("expected 409, got %d body=%s", w.Code, w.Body.String())
	}
}

func TestDeleteUser_CannotDeleteSelf(t *testing.T) {
	db := newTestDB(t)
	admin := seedUser(t, db, "admin@example.com", []string{role.Admin})
	h := NewUserHandler(db, nil)

	c, w := authedContext(t, admin.ID, http.MethodDelete, fmt.Sprintf("/users/%d", admin.ID), nil, "")
	c.Params = gin.Params{{Key: "id", Value: fmt.Sprint(admin.ID)}}

	h.DeleteUser(c)

	if w.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d body=%s", w.Code, w.Body.String())
	}
}

func TestDeleteUser(t *testing.T) {
	db := newTestDB(t)
	admin := seedUser(t, db, "admin@example.com", []string{role.Admin})
	victim := seedUser(t, db, "gone@example.com", []string{role.Candidate})
	h := NewUserHandler(db, nil)

	c, w := authedContext(t, admin.ID, http.MethodDelete, fmt.Sprintf("/users/%d", victim.ID), nil, "")
	c.Params = gin.Params{{Key: "id", Value: fmt.Sprint(victim.ID)}}

	h.DeleteUser(c)
	c.Writer.WriteHeaderNow()

	if w.Code != http.StatusNoContent {
		t.Fatalf("expected 204, got %d body=%s", w.Code, w.Body.String())
	}

	var count int64
	db.Model(&database.User{}).Where("email = ?", "gone@example.com").Count(&count)
	if count != 0 {
		t.Fatal("user not deleted")
	}
}

func TestUpdateUser_Roles(t *testing.T) {
	db := newTestDB(t)
	user := seedUser(t, db, "promote@example.com", []string{role.Candidate})
	h := NewUserHandler(db, nil)

	payload := []byte(`{"roles":["recruiter"]}`)
	c, w := authedContext(t, 1, http.MethodPatch, fmt.Sprintf("/users/%d", user.ID), bytes.NewBuffer(payload), "application/json")
	c.Params = gin.Params{{Key: "id", Value: fmt.Sprint(user.ID)}}

	h.UpdateUser(c)

	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d body=%s", w.Code, w.Body.String())
	}

	var reloaded database.User
	if err := db.First(&reloaded, user.ID).Error; err != nil {
		t.Fatalf("load user: %v", err)
	}
	if len(reloaded.Roles) != 1 || reloaded.Roles[0] != role.Recruiter {
		t.Fatalf("roles not updated: %v", reloaded.Roles)
	}
}
