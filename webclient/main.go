// main.go
package main

import (
	"context"
	"html/template"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/djobbo/Kyu-System/shared/api"
	"github.com/djobbo/Kyu-System/shared/config"
	"github.com/djobbo/Kyu-System/shared/models"
	"github.com/djobbo/Kyu-System/shared/service"
)

var pageTemplate = template.Must(template.New("index").Parse(`<!DOCTYPE html>
<html>
<head><title>Kyu</title></head>
<body>
<h1>Players</h1>
<form method="POST" action="/players">
  <input name="userId" placeholder="User ID" required>
  <input name="bracket" placeholder="Bracket" value="open" required>
  <button type="submit">Add player</button>
</form>
{{if .Error}}<p style="color:red">{{.Error}}</p>{{end}}
<table border="1" cellpadding="4">
  <tr><th>ID</th><th>User</th><th>Bracket</th><th>Rating</th></tr>
  {{range .Players}}
  <tr><td>{{.ID}}</td><td>{{.UserID}}</td><td>{{.Bracket}}</td><td>{{.Rating}}</td></tr>
  {{end}}
</table>
</body>
</html>`))

type pageData struct {
	Players []models.Player
	Error   string
}

// webClient serves the minimal add/list players page on top of the
// matchmaker's REST API.
type webClient struct {
	matchmaker *service.MatchmakerClient
}

func (wc *webClient) indexHandler(w http.ResponseWriter, r *http.Request) {
	wc.renderPage(w, r, "")
}

func (wc *webClient) addPlayerHandler(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseForm(); err != nil {
		http.Error(w, "Invalid form", http.StatusBadRequest)
		return
	}
	userID := r.FormValue("userId")
	bracket := r.FormValue("bracket")
	if userID == "" || bracket == "" {
		wc.renderPage(w, r, "User ID and bracket are required")
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	if _, err := wc.matchmaker.CreatePlayer(ctx, userID, bracket); err != nil {
		log.Printf("ERROR: Failed to add player for user %s: %v", userID, err)
		wc.renderPage(w, r, "Failed to add player: "+err.Error())
		return
	}
	http.Redirect(w, r, "/", http.StatusSeeOther)
}

func (wc *webClient) renderPage(w http.ResponseWriter, r *http.Request, errMsg string) {
	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	players, err := wc.matchmaker.ListPlayers(ctx)
	if err != nil {
		log.Printf("ERROR: Failed to list players: %v", err)
		if errMsg == "" {
			errMsg = "Failed to load players"
		}
	}

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	if err := pageTemplate.Execute(w, pageData{Players: players, Error: errMsg}); err != nil {
		log.Printf("ERROR: Failed to render page: %v", err)
	}
}

func main() {
	cfg, err := config.LoadWebClientConfig()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	wc := &webClient{
		matchmaker: service.NewMatchmakerClient(cfg.MatchmakerURL),
	}

	baseServer := api.NewBaseServer(cfg.ListenAddr, log.Default())
	baseServer.Router.HandleFunc("/", wc.indexHandler).Methods("GET")
	baseServer.Router.HandleFunc("/players", wc.addPlayerHandler).Methods("POST")

	go func() {
		log.Printf("Web client starting on %s (matchmaker at %s)...", cfg.ListenAddr, cfg.MatchmakerURL)
		if err := baseServer.Start(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("HTTP server failed to start: %v", err)
		}
	}()

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)
	<-stop

	log.Println("Shutting down web client...")
	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()
	if err := baseServer.Shutdown(shutdownCtx); err != nil {
		log.Fatalf("HTTP server graceful shutdown failed: %v", err)
	}
	log.Println("Web client gracefully stopped.")
}
