package main

//go:generate swag init -g cmd/server/main.go -o docs

// @title           BTC Game API
// @version         0.1.0
// @description     Bitcoin up/down prediction game: bets, prices, players.
// @host            localhost:5000
// @BasePath        /
// @schemes         http
