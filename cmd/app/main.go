/*
 * Copyright (c) 2026 Francesco Biribo'
 *
 * Permission to use, copy, modify, and distribute this software for any purpose with or without fee is hereby granted, provided that the above copyright notice and this permission notice appear in all copies.
 *
 * THE SOFTWARE IS PROVIDED "AS IS" AND THE AUTHOR DISCLAIMS ALL WARRANTIES WITH REGARD TO THIS SOFTWARE INCLUDING ALL IMPLIED WARRANTIES OF MERCHANTABILITY AND FITNESS. IN NO EVENT SHALL THE AUTHOR BE LIABLE FOR ANY SPECIAL, DIRECT, INDIRECT, OR CONSEQUENTIAL DAMAGES OR ANY DAMAGES WHATSOEVER RESULTING FROM LOSS OF USE, DATA OR PROFITS, WHETHER IN AN ACTION OF CONTRACT, NEGLIGENCE OR OTHER TORTIOUS ACTION, ARISING OUT OF OR IN CONNECTION WITH THE USE OR PERFORMANCE OF THIS SOFTWARE.
 */

package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"

	"server/internal/chat"
	"server/internal/config"
	"server/internal/entity"
	"server/internal/nlog"
	"server/internal/repository"
	"server/internal/service"
	"server/internal/web"

	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Could not load configuration {%v}", err)
	}

	appLogger, err := nlog.NewAppLogger(cfg.LogDirectory, cfg.LogEnabled)
	if err != nil {
		log.Fatalf("Could not setup logging {%v}", err)
	}
	defer appLogger.CloseAll()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	go appLogger.Run(ctx)

	authLogger, err := appLogger.RegisterSubsystem("auth")
	if err != nil {
		log.Fatalf("Could not register the auth subsystem {%v}", err)
	}
	groupLogger, err := appLogger.RegisterSubsystem("groups")
	if err != nil {
		log.Fatalf("Could not register the groups subsystem {%v}", err)
	}
	chatLogger, err := appLogger.RegisterSubsystem("chat")
	if err != nil {
		log.Fatalf("Could not register the chat subsystem {%v}", err)
	}
	webLogger, err := appLogger.RegisterSubsystem("web")
	if err != nil {
		log.Fatalf("Could not register the web subsystem {%v}", err)
	}

	db, err := gorm.Open(sqlite.Open(cfg.DatabasePath), &gorm.Config{})
	if err != nil {
		log.Fatalf("Could not open the database at %s {%v}", cfg.DatabasePath, err)
	}
	if err := db.AutoMigrate(
		&entity.User{},
		&entity.UserSecret{},
		&entity.StudyGroup{},
		&entity.Message{},
		&entity.ReplyLink{},
		&entity.Notification{},
	); err != nil {
		log.Fatalf("Could not migrate the database schema {%v}", err)
	}

	// Repositories
	userRepo := repository.NewSQLiteUserRepository(db)
	groupRepo := repository.NewSQLiteGroupRepository(db)
	messageRepo := repository.NewSQLiteMessageRepository(db)
	notificationRepo := repository.NewSQLiteNotificationRepository(db)

	// Services
	authService := service.NewLocalAuthService(userRepo, authLogger)
	groupService := service.NewLocalGroupService(groupRepo, groupLogger)
	membershipService := service.NewLocalMembershipService(groupRepo, groupLogger)
	notificationService := service.NewLocalNotificationService(notificationRepo, chatLogger)

	// Chat core
	registry := chat.NewRegistry(chatLogger)
	router := chat.NewRouter(messageRepo, membershipService, notificationService, registry, chatLogger, cfg.HistoryPageSize)

	webServer := web.NewWebServer()
	webServer.SetLogger(webLogger)
	webServer.SetAuthService(authService)
	webServer.SetGroupService(groupService)
	webServer.SetNotificationService(notificationService)
	webServer.SetMembershipService(membershipService)
	webServer.SetChat(registry, router)

	if err := webServer.Run(ctx, cfg); err != nil {
		log.Fatalf("Server stopped with an error {%v}", err)
	}
}
