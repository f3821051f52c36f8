package db

import (
	"os"

	"github.com/jaekim/medimap-backend/internal/app/model"
	"github.com/jaekim/medimap-backend/pkg/logger"
	"github.com/jaekim/medimap-backend/pkg/util"
)

// Migrate runs database migrations
func Migrate() error {
	logger.Info("Running database migrations...")

	models := []interface{}{
		&model.User{},
		&model.Facility{},
		&model.IngestionLog{},
	}

	if err := DB.AutoMigrate(models...); err != nil {
		logger.Error("Failed to run migrations", err)
		return err
	}

	if err := seedAdminUser(); err != nil {
		logger.Error("Failed to seed admin user during migration", err)
		return err
	}

	logger.Info("Database migrations completed successfully", map[string]interface{}{
		"models_count": len(models),
	})
	return nil
}

// seedAdminUser 관리자 계정 생성. ADMIN_EMAIL/ADMIN_PASSWORD 환경 변수가
// 없거나 이미 계정이 있으면 건너뛴다.
func seedAdminUser() error {
	email := os.Getenv("ADMIN_EMAIL")
	password := os.Getenv("ADMIN_PASSWORD")
	if email == "" || password == "" {
		logger.Debug("Admin credentials not configured, skipping admin seed")
		return nil
	}

	var count int64
	if err := DB.Model(&model.User{}).Where("email = ?", email).Count(&count).Error; err != nil {
		return err
	}
	if count > 0 {
		logger.Info("Admin user already exists, skipping...", map[string]interface{}{
			"email": email,
		})
		return nil
	}

	hashed, err := util.HashPassword(password)
	if err != nil {
		return err
	}

	admin := &model.User{
		Email:        email,
		PasswordHash: hashed,
		Name:         "관리자",
		Role:         model.RoleAdmin,
	}
	if err := DB.Create(admin).Error; err != nil {
		return err
	}

	logger.Info("Admin user seeded successfully", map[string]interface{}{
		"email": email,
	})
	return nil
}
