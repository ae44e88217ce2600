package authsvc

import (
	"context"
	"strings"

	"go.uber.org/zap"

	"propertyhub/model"
	userrepo "propertyhub/repository/user"
	"propertyhub/util/apperr"
	"propertyhub/util/database"
	"propertyhub/util/hash"
	jwtutil "propertyhub/util/jwt"
)

type Service interface {
	Register(ctx context.Context, req model.RegisterReq) (*model.User, string, error)
	Login(ctx context.Context, req model.LoginReq) (*model.User, string, error)
}

type service struct {
	db       database.Querier
	users    userrepo.Repo
	secret   string
	ttlHours int
	log      *zap.Logger
}

func New(db database.Querier, users userrepo.Repo, secret string, ttlHours int, log *zap.Logger) Service {
	if log == nil {
		log = zap.NewNop()
	}
	return &service{db: db, users: users, secret: secret, ttlHours: ttlHours, log: log}
}

// Register creates a USER account. Administrators are seeded directly in the database.
func (s *service) Register(ctx context.Context, req model.RegisterReq) (*model.User, string, error) {
	email := strings.ToLower(strings.TrimSpace(req.Email))
	username := strings.TrimSpace(req.Username)
	if email == "" || username == "" || len(req.Password) < 6 {
		return nil, "", apperr.BadInput("username, email and a password of at least 6 characters are required")
	}

	hashed, err := hash.HashPassword(req.Password)
	if err != nil {
		return nil, "", err
	}
	u := &model.User{
		Username:     username,
		Email:        email,
		PasswordHash: hashed,
		Role:         model.RoleUser,
	}
	if err := s.users.Create(ctx, s.db, u); err != nil {
		return nil, "", err
	}

	token, err := jwtutil.Issue(s.secret, u.ID, string(u.Role), u.Email, s.ttlHours)
	if err != nil {
		return nil, "", err
	}
	s.log.Info("user registered", zap.Int64("user_id", u.ID))
	return u, token, nil
}

func (s *service) Login(ctx context.Context, req model.LoginReq) (*model.User, string, error) {
	if strings.TrimSpace(req.Email) == "" || req.Password == "" {
		return nil, "", apperr.BadInput("email and password are required")
	}
	u, err := s.users.ByEmail(ctx, s.db, strings.TrimSpace(req.Email))
	if apperr.CodeOf(err) == apperr.CodeNotFound {
		return nil, "", apperr.Unauthorized("invalid email or password")
	}
	if err != nil {
		return nil, "", err
	}
	if !hash.Check(u.PasswordHash, req.Password) {
		return nil, "", apperr.Unauthorized("invalid email or password")
	}
	token, err := jwtutil.Issue(s.secret, u.ID, string(u.Role), u.Email, s.ttlHours)
	if err != nil {
		return nil, "", err
	}
	return u, token, nil
}
