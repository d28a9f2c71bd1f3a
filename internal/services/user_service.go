// internal/services/user_service.go
package services

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/javajoker/agriconnect-backend/internal/apperr"
	"github.com/javajoker/agriconnect-backend/internal/i18n"
	"github.com/javajoker/agriconnect-backend/internal/models"
	"github.com/javajoker/agriconnect-backend/internal/utils"
)

type UserService struct {
	db *gorm.DB
}

type UpdateUserProfileRequest struct {
	Name     *string `json:"name,omitempty" validate:"omitempty,min=2,max=100"`
	Phone    *string `json:"phone,omitempty" validate:"omitempty,phone"`
	Location *string `json:"location,omitempty" validate:"omitempty,max=255"`
}

func NewUserService(db *gorm.DB) *UserService {
	return &UserService{db: db}
}

func (s *UserService) GetPublicProfile(ctx context.Context, userID uuid.UUID) (*models.PublicProfile, error) {
	var user models.User
	if err := s.db.WithContext(ctx).Select("id, name, phone, location, role").
		First(&user, "id = ?", userID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperr.NotFound(i18n.KeyUserNotFound)
		}
		return nil, apperr.Internal(err, "failed to load user")
	}
	profile := user.Public()
	return &profile, nil
}

func (s *UserService) UpdateProfile(ctx context.Context, userID uuid.UUID, req *UpdateUserProfileRequest) (*models.User, error) {
	if err := utils.ValidateStruct(req); err != nil {
		return nil, apperr.Validation(err, "validation failed")
	}

	var user models.User
	if err := s.db.WithContext(ctx).First(&user, "id = ?", userID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperr.NotFound(i18n.KeyUserNotFound)
		}
		return nil, apperr.Internal(err, "failed to load user")
	}

	var columns []string
	if req.Name != nil {
		user.Name = *req.Name
		columns = append(columns, "name")
	}
	if req.Phone != nil {
		user.Phone = *req.Phone
		columns = append(columns, "phone")
	}
	if req.Location != nil {
		user.Location = *req.Location
		columns = append(columns, "location")
	}
	if len(columns) == 0 {
		return &user, nil
	}

	if err := s.db.WithContext(ctx).Model(&user).Select(columns).Updates(&user).Error; err != nil {
		return nil, apperr.Internal(err, "failed to update profile")
	}

	return &user, nil
}
