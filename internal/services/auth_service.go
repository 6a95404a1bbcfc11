package services

import (
	"context"
	"crypto/rand"
	"crypto/subtle"
	"errors"
	"fmt"
	"math/big"
	"time"

	"cafeorders/internal/domain"
	"cafeorders/internal/repos"

	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"
)

var (
	ErrBadCreds   = errors.New("invalid credentials")
	ErrInvalidOTP = errors.New("invalid OTP")
	ErrOTPExpired = errors.New("OTP expired")
	ErrNoSession  = errors.New("not authenticated")
	ErrWrongRole  = errors.New("operation not allowed for this role")
	ErrBadOldPass = errors.New("current password is incorrect")
)

// Login is an opened session.
type Login struct {
	SID                string
	User               domain.User
	NeedsProfileUpdate bool
}

// AdminLogin is the outcome of one admin login step. Exactly one of
// OTPRequired and Session is set.
type AdminLogin struct {
	OTPRequired bool
	OTP         string
	Session     *Login
}

type AuthService struct {
	Users      *repos.UserRepo
	Now        func() time.Time
	OTPTTL     time.Duration
	SessionTTL time.Duration
	NewOTP     func() (string, error)
}

func NewAuthService(users *repos.UserRepo, otpTTL, sessionTTL time.Duration) *AuthService {
	return &AuthService{Users: users, Now: time.Now, OTPTTL: otpTTL, SessionTTL: sessionTTL, NewOTP: GenerateOTP}
}

// GenerateOTP returns a uniformly random 6-digit code.
func GenerateOTP() (string, error) {
	n, err := rand.Int(rand.Reader, big.NewInt(900000))
	if err != nil {
		return "", err
	}
	return fmt.Sprintf("%06d", n.Int64()+100000), nil
}

// SendOTP finds or registers the student and stores a fresh OTP.
func (s *AuthService) SendOTP(ctx context.Context, mobile string) (string, error) {
	st, err := s.Users.EnsureStudent(ctx, mobile)
	if err != nil {
		return "", domain.Persist("ensure student", err)
	}
	otp, exp, err := s.issue()
	if err != nil {
		return "", err
	}
	if err := s.Users.SetStudentOTP(ctx, st.ID, &otp, &exp); err != nil {
		return "", domain.Persist("store otp", err)
	}
	return otp, nil
}

func (s *AuthService) VerifyOTP(ctx context.Context, mobile, otp string) (*Login, error) {
	st, err := s.Users.StudentByMobile(ctx, mobile)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return nil, fmt.Errorf("student %w", domain.ErrNotFound)
		}
		return nil, domain.Persist("load student", err)
	}
	if err := s.check(st.OTP, st.OTPExpiry, otp); err != nil {
		return nil, err
	}
	if err := s.Users.SetStudentOTP(ctx, st.ID, nil, nil); err != nil {
		return nil, domain.Persist("clear otp", err)
	}
	u := studentUser(st)
	sid, err := s.open(ctx, u)
	if err != nil {
		return nil, err
	}
	return &Login{SID: sid, User: u, NeedsProfileUpdate: st.Name == nil || st.Email == nil}, nil
}

// AdminLogin checks the password, then either issues an OTP (otp == "")
// or verifies the supplied one against the issued code.
func (s *AuthService) AdminLogin(ctx context.Context, mobile, password, otp string) (*AdminLogin, error) {
	a, err := s.Users.AdminByMobile(ctx, mobile)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return nil, ErrBadCreds
		}
		return nil, domain.Persist("load admin", err)
	}
	if bcrypt.CompareHashAndPassword([]byte(a.Hash), []byte(password)) != nil {
		return nil, ErrBadCreds
	}

	if otp == "" {
		code, exp, err := s.issue()
		if err != nil {
			return nil, err
		}
		if err := s.Users.SetAdminOTP(ctx, a.ID, &code, &exp); err != nil {
			return nil, domain.Persist("store otp", err)
		}
		return &AdminLogin{OTPRequired: true, OTP: code}, nil
	}

	if err := s.check(a.OTP, a.OTPExpiry, otp); err != nil {
		return nil, err
	}
	if err := s.Users.SetAdminOTP(ctx, a.ID, nil, nil); err != nil {
		return nil, domain.Persist("clear otp", err)
	}
	u := adminUser(a)
	sid, err := s.open(ctx, u)
	if err != nil {
		return nil, err
	}
	return &AdminLogin{Session: &Login{SID: sid, User: u}}, nil
}

// CurrentUser resolves a session id. Expired sessions are removed.
func (s *AuthService) CurrentUser(ctx context.Context, sid string) (domain.User, error) {
	if sid == "" {
		return domain.User{}, ErrNoSession
	}
	row, err := s.Users.Session(ctx, sid)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return domain.User{}, ErrNoSession
		}
		return domain.User{}, domain.Persist("load session", err)
	}
	now := s.Now()
	if !now.Before(row.ExpiresAt) {
		_ = s.Users.DeleteSession(ctx, sid)
		return domain.User{}, ErrNoSession
	}

	var u domain.User
	switch row.Role {
	case domain.RoleAdmin:
		a, err := s.Users.AdminByID(ctx, row.UserID)
		if err != nil {
			return domain.User{}, s.orphan(ctx, sid, err)
		}
		u = adminUser(a)
	default:
		st, err := s.Users.StudentByID(ctx, row.UserID)
		if err != nil {
			return domain.User{}, s.orphan(ctx, sid, err)
		}
		u = studentUser(st)
	}
	if err := s.Users.TouchSession(ctx, sid, now); err != nil {
		return domain.User{}, domain.Persist("touch session", err)
	}
	return u, nil
}

func (s *AuthService) Logout(ctx context.Context, sid string) error {
	if sid == "" {
		return nil
	}
	return domain.Persist("delete session", s.Users.DeleteSession(ctx, sid))
}

func (s *AuthService) UpdateProfile(ctx context.Context, u domain.User, name, email *string) (domain.User, error) {
	if u.Role != domain.RoleStudent {
		return domain.User{}, ErrWrongRole
	}
	st, err := s.Users.UpdateStudentProfile(ctx, u.ID, name, email)
	if err != nil {
		return domain.User{}, domain.Persist("update profile", err)
	}
	return studentUser(st), nil
}

func (s *AuthService) ChangePassword(ctx context.Context, u domain.User, oldPass, newPass string) error {
	if u.Role != domain.RoleAdmin {
		return ErrWrongRole
	}
	a, err := s.Users.AdminByID(ctx, u.ID)
	if err != nil {
		return domain.Persist("load admin", err)
	}
	if bcrypt.CompareHashAndPassword([]byte(a.Hash), []byte(oldPass)) != nil {
		return ErrBadOldPass
	}
	hash, err := bcrypt.GenerateFromPassword([]byte(newPass), bcrypt.DefaultCost)
	if err != nil {
		return err
	}
	return domain.Persist("set password", s.Users.SetAdminPassword(ctx, a.ID, string(hash)))
}

func (s *AuthService) issue() (string, time.Time, error) {
	otp, err := s.NewOTP()
	if err != nil {
		return "", time.Time{}, err
	}
	return otp, s.Now().Add(s.OTPTTL), nil
}

func (s *AuthService) check(stored *string, expiry *time.Time, got string) error {
	if stored == nil || subtle.ConstantTimeCompare([]byte(*stored), []byte(got)) != 1 {
		return ErrInvalidOTP
	}
	if expiry == nil || s.Now().After(*expiry) {
		return ErrOTPExpired
	}
	return nil
}

func (s *AuthService) open(ctx context.Context, u domain.User) (string, error) {
	now := s.Now()
	row := repos.SessionRow{
		ID:        uuid.NewString(),
		Role:      u.Role,
		UserID:    u.ID,
		CreatedAt: now,
		LastSeen:  now,
		ExpiresAt: now.Add(s.SessionTTL),
	}
	if err := s.Users.CreateSession(ctx, row); err != nil {
		return "", domain.Persist("create session", err)
	}
	return row.ID, nil
}

// orphan drops a session whose user no longer exists.
func (s *AuthService) orphan(ctx context.Context, sid string, err error) error {
	if errors.Is(err, domain.ErrNotFound) {
		_ = s.Users.DeleteSession(ctx, sid)
		return ErrNoSession
	}
	return domain.Persist("load session user", err)
}

func studentUser(st *domain.Student) domain.User {
	u := domain.User{ID: st.ID, Role: domain.RoleStudent, Mobile: st.Mobile}
	if st.Name != nil {
		u.Name = *st.Name
	}
	if st.Email != nil {
		u.Email = *st.Email
	}
	return u
}

func adminUser(a *domain.Admin) domain.User {
	return domain.User{ID: a.ID, Role: domain.RoleAdmin, Mobile: a.Mobile, Name: a.Name}
}
