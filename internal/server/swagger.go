package server

//go:generate swag init -g internal/server/server.go -o docs/swagger

// @title PhishLens API
// @version 0.1
// @description Heuristic URL phishing detection: feature extraction, six fixed scoring formulas, asynchronous jobs and detection history.
// @contact.name PhishLens Maintainers
// @contact.url https://github.com/raysh454/phishlens
// @BasePath /
