package main

import (
	"github.com/OFFIS-RIT/tripalbum/backend/internal/bootstrap"
	"github.com/OFFIS-RIT/tripalbum/backend/internal/server"
	"github.com/OFFIS-RIT/tripalbum/backend/internal/util"

	_ "github.com/lib/pq"
)

func main() {
	util.LoadEnv()

	bootstrap.InitLogger("server")

	server.Init()
}
