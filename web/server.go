package web

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"net/http"
	"sort"
	"strings"
	"time"

	"github.com/xcono/sqlfilter/builder"
	"github.com/xcono/sqlfilter/schema"
	"github.com/xcono/sqlfilter/web/database"
	"github.com/xcono/sqlfilter/web/handlers"
	"github.com/xcono/sqlfilter/web/response"
	"github.com/zeromicro/go-zero/core/logx"
)

// NewHandler serves the entities of reg over db.
func NewHandler(reg *schema.Registry, db *sql.DB) http.Handler {
	router := handlers.NewRouter(database.NewExecutor(db), reg.Composer())

	mux := http.NewServeMux()

	// Add CORS middleware
	mux.HandleFunc("/", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Access-Control-Allow-Origin", "*")
		w.Header().Set("Access-Control-Allow-Methods", "GET, POST, OPTIONS")
		w.Header().Set("Access-Control-Allow-Headers", "Content-Type, Authorization, Accept")
		w.Header().Set("Content-Type", "application/json")

		// Handle preflight requests
		if r.Method == http.MethodOptions {
			w.WriteHeader(http.StatusOK)
			return
		}

		if strings.Trim(r.URL.Path, "/") == "" {
			handleRoot(w, reg)
			return
		}

		router.HandleEntity(w, r)
	})

	return mux
}

// StartServer serves the configured service until ctx is cancelled.
func StartServer(ctx context.Context, c schema.Config) error {
	name, svc, err := selectService(c)
	if err != nil {
		return err
	}

	reg, db, err := schema.Open(ctx, name, svc)
	if err != nil {
		return err
	}
	defer db.Close()

	addr := fmt.Sprintf("%s:%d", c.Host, c.Port)
	srv := &http.Server{
		Addr:              addr,
		Handler:           NewHandler(reg, db),
		ReadHeaderTimeout: 10 * time.Second,
	}

	logx.Infof("Starting %s on %s, service %s (%s)", c.Name, addr, name, reg.Driver())
	logx.Info("Supported endpoints:")
	logx.Info("  GET          /                  - Entities, fields and operators")
	logx.Info("  GET          /{entity}          - Select rows, filter as JSON in ?filter=")
	logx.Info("  POST         /{entity}/filter   - Select rows, filter in the JSON body")
	logx.Info("  GET|POST     /{entity}/explain  - Compiled SQL and arguments")

	errs := make(chan error, 1)
	go func() {
		errs <- srv.ListenAndServe()
	}()

	select {
	case err := <-errs:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
		shutdown, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		logx.Info("Shutting down server")
		return srv.Shutdown(shutdown)
	}
}

// selectService returns the configured service, or the first by name.
func selectService(c schema.Config) (string, schema.Service, error) {
	if c.Service != "" {
		svc, ok := c.Services[c.Service]
		if !ok {
			return "", schema.Service{}, fmt.Errorf("service %s is not configured", c.Service)
		}
		return c.Service, svc, nil
	}

	names := make([]string, 0, len(c.Services))
	for name := range c.Services {
		names = append(names, name)
	}
	if len(names) == 0 {
		return "", schema.Service{}, errors.New("no services configured")
	}
	sort.Strings(names)
	return names[0], c.Services[names[0]], nil
}

type entityInfo struct {
	Fields   []string `json:"fields"`
	Mappings []string `json:"mappings,omitempty"`
	Text     []string `json:"text,omitempty"`
}

// handleRoot returns the entities of the service and the filter vocabulary.
func handleRoot(w http.ResponseWriter, reg *schema.Registry) {
	c := reg.Composer()

	entities := make(map[string]entityInfo, len(c.Entities()))
	for _, name := range c.Entities() {
		def, _ := c.Definition(name)
		entities[name] = entityInfo{
			Fields:   def.Fields(),
			Mappings: def.MappingNames(),
			Text:     def.TextFields(),
		}
	}

	response.WriteJSON(w, http.StatusOK, map[string]any{
		"name":      reg.Name(),
		"driver":    reg.Driver(),
		"entities":  entities,
		"operators": builder.OperatorNames(),
		"combiners": []string{string(builder.LogicalAnd), string(builder.LogicalOr), string(builder.LogicalNot)},
		"any_text":  builder.AnyTextKey,
	})
}
