/*
 * Copyright (c) 2026 Francesco Biribo'
 *
 * Permission to use, copy, modify, and distribute this software for any purpose with or without fee is hereby granted, provided that the above copyright notice and this permission notice appear in all copies.
 *
 * THE SOFTWARE IS PROVIDED "AS IS" AND THE AUTHOR DISCLAIMS ALL WARRANTIES WITH REGARD TO THIS SOFTWARE INCLUDING ALL IMPLIED WARRANTIES OF MERCHANTABILITY AND FITNESS. IN NO EVENT SHALL THE AUTHOR BE LIABLE FOR ANY SPECIAL, DIRECT, INDIRECT, OR CONSEQUENTIAL DAMAGES OR ANY DAMAGES WHATSOEVER RESULTING FROM LOSS OF USE, DATA OR PROFITS, WHETHER IN AN ACTION OF CONTRACT, NEGLIGENCE OR OTHER TORTIOUS ACTION, ARISING OUT OF OR IN CONNECTION WITH THE USE OR PERFORMANCE OF THIS SOFTWARE.
 */

package web

import (
	"context"
	"fmt"
	"net/http"
	"sync/atomic"
	"time"

	"server/internal/chat"
	"server/internal/config"
	"server/internal/handler"
	"server/internal/middleware"
	"server/internal/nlog"
	"server/internal/service"

	"github.com/gorilla/mux"
	"github.com/gorilla/sessions"
)

type WebServer struct { // Manages the HTTP surface: REST routes plus the group chat socket
	running atomic.Bool

	logger nlog.Logger
	server *http.Server

	stopFromOutsideChan chan struct{}
	doneFromInsideChan  chan struct{}

	authService         service.AuthService
	groupService        service.GroupService
	notificationService service.NotificationService
	membershipService   service.MembershipService

	registry *chat.Registry
	router   *chat.Router
}

func NewWebServer() *WebServer {
	return &WebServer{
		running:             atomic.Bool{},
		stopFromOutsideChan: make(chan struct{}),
		doneFromInsideChan:  make(chan struct{}),
	}
}

func (s *WebServer) IsReady() bool {
	return s.logger != nil &&
		s.authService != nil &&
		s.groupService != nil &&
		s.notificationService != nil &&
		s.membershipService != nil &&
		s.registry != nil &&
		s.router != nil
}

func (s *WebServer) IsRunning() bool {
	return s.running.Load()
}

func (s *WebServer) SetLogger(l nlog.Logger) {
	s.logger = l
}

func (s *WebServer) SetAuthService(as service.AuthService) {
	s.authService = as
}

func (s *WebServer) SetGroupService(gs service.GroupService) {
	s.groupService = gs
}

func (s *WebServer) SetNotificationService(ns service.NotificationService) {
	s.notificationService = ns
}

func (s *WebServer) SetMembershipService(ms service.MembershipService) {
	s.membershipService = ms
}

func (s *WebServer) SetChat(registry *chat.Registry, router *chat.Router) {
	s.registry = registry
	s.router = router
}

func (s *WebServer) Logf(format string, a ...any) {
	s.logger.Logf(format, a...)
}

func (s *WebServer) Run(ctx context.Context, cfg *config.Config) error {
	if !s.IsReady() {
		return fmt.Errorf("The web server is not ready... Missing components")
	}
	s.Logf("Web service starting on port {%d}", cfg.ServerPort)

	cookieStore := sessions.NewCookieStore([]byte(cfg.SessionSecret))
	cookieStore.Options = &sessions.Options{
		Path:     "/",
		HttpOnly: true,
		Secure:   false,
		SameSite: http.SameSiteLaxMode,
		MaxAge:   int(7 * 24 * time.Hour.Seconds()),
	}

	// Handlers
	authHandler := handler.NewAuthHandler(s.authService, cookieStore)
	groupHandler := handler.NewGroupHandler(s.groupService)
	notificationHandler := handler.NewNotificationHandler(s.notificationService)
	endpoint := chat.NewEndpoint(s.registry, s.router, s.membershipService, cookieStore, s.logger)

	// Router
	r := mux.NewRouter()

	// Authentication routes
	r.HandleFunc("/register", authHandler.Register).Methods("POST")
	r.HandleFunc("/login", authHandler.Login).Methods("POST")
	r.HandleFunc("/logout", authHandler.Logout).Methods("POST")

	// Group routes
	r.HandleFunc("/groups", middleware.AuthMiddleware(cookieStore, groupHandler.CreateGroup)).Methods("POST")
	r.HandleFunc("/groups", middleware.AuthMiddleware(cookieStore, groupHandler.GetGroups)).Methods("GET")
	r.HandleFunc("/groups/{uuid}", middleware.AuthMiddleware(cookieStore, groupHandler.GetGroup)).Methods("GET")
	r.HandleFunc("/groups/{uuid}", middleware.AuthMiddleware(cookieStore, groupHandler.DeleteGroup)).Methods("DELETE")
	r.HandleFunc("/groups/{uuid}/join", middleware.AuthMiddleware(cookieStore, groupHandler.JoinGroup)).Methods("POST")
	r.HandleFunc("/groups/{uuid}/leave", middleware.AuthMiddleware(cookieStore, groupHandler.LeaveGroup)).Methods("POST")

	// Notification routes
	r.HandleFunc("/notifications", middleware.AuthMiddleware(cookieStore, notificationHandler.GetNotifications)).Methods("GET")
	r.HandleFunc("/notifications/{id}/read", middleware.AuthMiddleware(cookieStore, notificationHandler.MarkRead)).Methods("POST")

	// Group chat socket
	r.HandleFunc("/api/{user_id}/{group_id}/ws", endpoint.ServeGroupSocket).Methods("GET")

	s.server = &http.Server{
		Addr:           fmt.Sprintf(":%d", cfg.ServerPort),
		Handler:        r,
		ReadTimeout:    time.Duration(cfg.ReadTimeout * int64(time.Second)),
		WriteTimeout:   time.Duration(cfg.WriteTimeout * int64(time.Second)),
		MaxHeaderBytes: 1 << 20,
	}

	go func() {
		select {
		case <-ctx.Done():
			s.Logf("Received stop signal. Shutting down...")
		case <-s.stopFromOutsideChan:
			s.Logf("Server was asked to stop. Shutting down...")
		}

		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()

		if err := s.server.Shutdown(shutdownCtx); err != nil {
			s.Logf("Error during shutdown... %v\n", err)
		}
		close(s.doneFromInsideChan)
	}()

	s.running.Store(true)
	if err := s.server.ListenAndServe(); err != http.ErrServerClosed {
		s.Logf("FATAL: HTTP Server error{%v}\n", err)
		return err
	}

	return nil
}

func (s *WebServer) Stop() {
	close(s.stopFromOutsideChan)
	<-s.doneFromInsideChan
	s.running.Store(false)
}
