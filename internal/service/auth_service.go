package service

import (
	"errors"
	"fmt"
	"html"
	"learnhub_backend/internal/config"
	"learnhub_backend/internal/model"
	"learnhub_backend/internal/repository"
	"learnhub_backend/internal/util"
	"learnhub_backend/pkg/mail"
	"net/url"
	"time"

	"golang.org/x/crypto/bcrypt"
)

type RegisterInput struct {
	Username string `json:"username" validate:"required,min=3,max=150"`
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required,min=8,max=72"`
	Role     string `json:"role" validate:"required,oneof=tutor student"`
	Name     string `json:"name" validate:"max=100"`
	Surname  string `json:"surname" validate:"max=100"`
}

type LoginInput struct {
	Login    string `json:"login" validate:"required"`
	Password string `json:"password" validate:"required"`
}

type ProfileInput struct {
	Name        string `json:"name" validate:"max=100"`
	Surname     string `json:"surname" validate:"max=100"`
	PhoneNumber string `json:"phoneNumber" validate:"max=15"`
	Address     string `json:"address"`
	Bio         string `json:"bio"`
}

type AuthResult struct {
	Token string      `json:"token"`
	User  *model.User `json:"user"`
}

type AuthService struct {
	UserRepo *repository.UserRepository
	Mailer   mail.Mailer
	Cfg      *config.Config
}

func NewAuthService(userRepo *repository.UserRepository, mailer mail.Mailer, cfg *config.Config) *AuthService {
	return &AuthService{
		UserRepo: userRepo,
		Mailer:   mailer,
		Cfg:      cfg,
	}
}

func (s *AuthService) Register(in RegisterInput) (*AuthResult, error) {
	if err := validateInput(in); err != nil {
		return nil, err
	}

	exists, err := s.UserRepo.ExistsByUsernameOrEmail(in.Username, in.Email)
	if err != nil {
		return nil, err
	}
	if exists {
		return nil, util.Conflictf("username or email already registered")
	}

	hashedPassword, err := bcrypt.GenerateFromPassword([]byte(in.Password), bcrypt.DefaultCost)
	if err != nil {
		return nil, err
	}

	now := time.Now()
	user := &model.User{
		Username:  in.Username,
		Email:     in.Email,
		Password:  string(hashedPassword),
		Role:      model.UserRole(in.Role),
		Name:      in.Name,
		Surname:   in.Surname,
		LastLogin: now,
		LastSeen:  now,
	}
	if err := s.UserRepo.Create(user); err != nil {
		return nil, err
	}
	return s.issue(user)
}

func (s *AuthService) Login(in LoginInput) (*AuthResult, error) {
	if err := validateInput(in); err != nil {
		return nil, err
	}

	user, err := s.UserRepo.FindByLogin(in.Login)
	if errors.Is(err, util.ErrNotFound) {
		return nil, util.ErrInvalidCredentials
	}
	if err != nil {
		return nil, err
	}

	if err := bcrypt.CompareHashAndPassword([]byte(user.Password), []byte(in.Password)); err != nil {
		return nil, util.ErrInvalidCredentials
	}

	now := time.Now()
	if err := s.UserRepo.TouchLastLogin(user.ID, now); err != nil {
		return nil, err
	}
	user.LastLogin = now
	return s.issue(user)
}

func (s *AuthService) issue(user *model.User) (*AuthResult, error) {
	token, err := util.GenerateJWT(user, s.Cfg.JWT.Secret, s.Cfg.JWT.ExpireTime)
	if err != nil {
		return nil, err
	}
	return &AuthResult{Token: token, User: user}, nil
}

func (s *AuthService) GetProfile(userID uint) (*model.User, error) {
	return s.UserRepo.FindByID(userID)
}

func (s *AuthService) UpdateProfile(userID uint, in ProfileInput) (*model.User, error) {
	if err := validateInput(in); err != nil {
		return nil, err
	}
	user, err := s.UserRepo.FindByID(userID)
	if err != nil {
		return nil, err
	}
	user.Name = in.Name
	user.Surname = in.Surname
	user.PhoneNumber = in.PhoneNumber
	user.Address = in.Address
	user.Bio = in.Bio
	if err := s.UserRepo.Update(user); err != nil {
		return nil, err
	}
	return user, nil
}

// RequestPasswordReset 发送带短期令牌的重置链接
func (s *AuthService) RequestPasswordReset(email string) error {
	if err := validate.Var(email, "required,email"); err != nil {
		return util.NewValidationError("email", "must be a valid email address")
	}
	user, err := s.UserRepo.FindByEmail(email)
	if err != nil {
		return err
	}

	token, err := util.GenerateResetToken(user, s.Cfg.JWT.Secret, s.Cfg.JWT.ResetExpire)
	if err != nil {
		return err
	}

	link := fmt.Sprintf("%s/reset-password?token=%s", s.Cfg.Server.FrontendURL, url.QueryEscape(token))
	body := fmt.Sprintf(
		`<p>Hello %s,</p><p>Use the link below to choose a new password. It expires in %d minutes.</p><p><a href="%s">Reset password</a></p>`,
		html.EscapeString(user.FullName()), int(s.Cfg.JWT.ResetExpire.Minutes()), link)
	mail.SendAsync(s.Mailer, user.Email, "Reset your password", body)
	return nil
}

func (s *AuthService) ConfirmPasswordReset(token, newPassword string) error {
	if err := validate.Var(newPassword, "required,min=8,max=72"); err != nil {
		return util.NewValidationError("password", "must be between 8 and 72 characters")
	}
	claims, err := util.ParseResetToken(token, s.Cfg.JWT.Secret)
	if err != nil {
		return util.NewValidationError("token", "invalid or expired reset token")
	}
	user, err := s.UserRepo.FindByID(claims.UserID)
	if err != nil {
		return err
	}
	// 已使用或密码已变更的令牌
	if claims.Stamp == "" || claims.Stamp != util.PasswordStamp(user.Password) {
		return util.NewValidationError("token", "invalid or expired reset token")
	}

	hashedPassword, err := bcrypt.GenerateFromPassword([]byte(newPassword), bcrypt.DefaultCost)
	if err != nil {
		return err
	}
	return s.UserRepo.UpdatePassword(claims.UserID, string(hashedPassword))
}

func (s *AuthService) TouchLastSeen(userID uint) error {
	return s.UserRepo.TouchLastSeen(userID, time.Now())
}
