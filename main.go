package main

import (
	"sosmed/config"
	"sosmed/models"
	"sosmed/routes"
	"sosmed/storage"
	"sosmed/utils"
)

func main() {
	cfg := config.Load()

	// Initialize logger early
	if err := utils.InitLogger(cfg); err != nil {
		panic(err)
	}

	db := config.InitDatabase(&models.User{}, &models.Post{}, &models.Like{}, &models.Comment{})

	blobs, err := storage.NewLocalStorage(cfg.StorageDir, cfg.StorageBaseURL)
	if err != nil {
		utils.Sugar.Fatalf("init storage: %v", err)
	}

	r := routes.SetupRouter(db, blobs)

	utils.Sugar.Infof("Starting server on port %s (graceful)", cfg.AppPort)
	if err := utils.GraceServer(":"+cfg.AppPort, r); err != nil {
		utils.Sugar.Fatalf("server stopped with error: %v", err)
	}
}
