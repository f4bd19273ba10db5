package http

import (
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"

	authmw "github.com/bsfellows/cbt-backend/internal/auth/middleware"
	"github.com/bsfellows/cbt-backend/internal/exam"
	"github.com/bsfellows/cbt-backend/internal/rbac"
)

var validate = validator.New()

type registerReq struct {
	FullName     string `json:"full_name" validate:"required"`
	MatricNumber string `json:"matric_number" validate:"required"`
	Password     string `json:"password" validate:"required,min=6"`
}

// POST /auth/register — student signup. Admins are bootstrapped from config.
func RegisterHandler(store exam.Store) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req registerReq
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			http.Error(w, "bad json", http.StatusBadRequest)
			return
		}
		if err := validate.Struct(req); err != nil {
			http.Error(w, err.Error(), http.StatusBadRequest)
			return
		}
		if _, err := store.GetProfileByMatric(r.Context(), req.MatricNumber); err == nil {
			http.Error(w, "matric number already registered", http.StatusConflict)
			return
		} else if !errors.Is(err, exam.ErrProfileNotFound) {
			httpError(w, err)
			return
		}
		hash, err := bcrypt.GenerateFromPassword([]byte(req.Password), bcrypt.DefaultCost)
		if err != nil {
			http.Error(w, "hash password", http.StatusInternalServerError)
			return
		}
		p := exam.Profile{
			ID:           uuid.NewString(),
			FullName:     req.FullName,
			MatricNumber: req.MatricNumber,
			Role:         "student",
			PasswordHash: string(hash),
			CreatedAt:    time.Now().Unix(),
		}
		if err := store.CreateProfile(r.Context(), p); err != nil {
			httpError(w, err)
			return
		}
		writeJSON(w, http.StatusCreated, p)
	}
}

// POST /auth/login  { "matric_number": "...", "password": "..." }
func LoginHandler(store exam.Store, authSvc *authmw.AuthService) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req struct {
			MatricNumber string `json:"matric_number"`
			Password     string `json:"password"`
		}
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			http.Error(w, "bad json", http.StatusBadRequest)
			return
		}
		p, err := store.GetProfileByMatric(r.Context(), req.MatricNumber)
		if err != nil {
			http.Error(w, "invalid credentials", http.StatusUnauthorized)
			return
		}
		if bcrypt.CompareHashAndPassword([]byte(p.PasswordHash), []byte(req.Password)) != nil {
			http.Error(w, "invalid credentials", http.StatusUnauthorized)
			return
		}
		tok, err := authSvc.IssueJWT(p.ID, p.Role, p.Field)
		if err != nil {
			http.Error(w, "issue token", http.StatusInternalServerError)
			return
		}
		writeJSON(w, http.StatusOK, map[string]interface{}{"access_token": tok, "profile": p})
	}
}

type setFieldReq struct {
	Field string `json:"field" validate:"required,oneof=science art commercial"`
}

// PATCH /me/field — field-of-study onboarding, once per student.
func SetFieldHandler(store exam.Store) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		sub := rbac.SubjectFromContext(r.Context())
		var req setFieldReq
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			http.Error(w, "bad json", http.StatusBadRequest)
			return
		}
		if err := validate.Struct(req); err != nil {
			http.Error(w, err.Error(), http.StatusBadRequest)
			return
		}
		p, err := store.GetProfile(r.Context(), sub)
		if err != nil {
			httpError(w, err)
			return
		}
		if p.Field != "" && p.Field != req.Field {
			http.Error(w, "field already chosen", http.StatusConflict)
			return
		}
		if err := store.SetProfileField(r.Context(), sub, req.Field); err != nil {
			httpError(w, err)
			return
		}
		p.Field = req.Field
		writeJSON(w, http.StatusOK, p)
	}
}

// GET /me
func MeHandler(store exam.Store) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		p, err := store.GetProfile(r.Context(), rbac.SubjectFromContext(r.Context()))
		if err != nil {
			httpError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, p)
	}
}
