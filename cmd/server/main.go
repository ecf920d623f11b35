package main

import (
	"context"
	"fmt"
	"log"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"villagesq/internal/common"
	"villagesq/internal/dbmysql"
	"villagesq/internal/di"

	"github.com/gorilla/mux"
	"github.com/joho/godotenv"
	"golang.org/x/sync/errgroup"
)

func main() {
	if err := godotenv.Load(); err != nil {
		log.Println("No .env file found, using system environment variables")
	}

	log.Println("Initializing application...")
	app, err := di.InitializeApplication()
	if err != nil {
		log.Fatalf("Failed to initialize application: %v", err)
	}

	if err := dbmysql.Migrate(app.DB); err != nil {
		log.Fatalf("Failed to migrate database: %v", err)
	}
	log.Println("Database migration completed")

	router := mux.NewRouter()
	router.Use(common.LoggingMiddleware())
	router.Use(common.AuthMiddleware())

	app.UserHandler.RegisterRoutes(router)
	app.ChatHandler.RegisterRoutes(router)
	app.FeedHandler.RegisterRoutes(router)
	app.AnnouncementHandler.RegisterRoutes(router)
	app.NotificationHandler.RegisterRoutes(router)

	srv := &http.Server{
		Addr:        fmt.Sprintf("%s:%s", app.Config.Server.Host, app.Config.Server.Port),
		Handler:     router,
		ReadTimeout: time.Duration(app.Config.Server.ReadTimeout) * time.Second,
		// WriteTimeout stays zero: the chat stream endpoint holds its
		// response open for up to the stream lifetime.
		WriteTimeout: 0,
		IdleTimeout:  120 * time.Second,
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		log.Printf("HTTP server listening on %s", srv.Addr)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			return err
		}
		return nil
	})

	g.Go(func() error {
		<-gctx.Done()
		log.Println("Shutting down server...")

		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	})

	if err := g.Wait(); err != nil {
		log.Printf("Server error: %v", err)
	}

	app.NotificationService.Shutdown()

	if app.Mongo != nil {
		if err := app.Mongo.Close(context.Background()); err != nil {
			log.Printf("Failed to close MongoDB connection: %v", err)
		}
	}

	log.Println("Server stopped")
}
