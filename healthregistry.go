package main

import (
	"bytes"
	"context"
	"database/sql"
	"fmt"
	"log"
	"net"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"
	_ "time/tzdata"

	"github.com/alexedwards/scs/v2"
	"github.com/go-chi/chi/v5/middleware"
	_ "github.com/go-sql-driver/mysql"
	_ "github.com/lib/pq"
	_ "github.com/mattn/go-sqlite3"
	"github.com/spf13/viper"
	"github.com/wansing/healthregistry/auth"
	"github.com/wansing/healthregistry/backend"
	"github.com/wansing/healthregistry/cep"
	"github.com/wansing/healthregistry/core"
	"github.com/wansing/healthregistry/events"
	"github.com/wansing/healthregistry/sqldb"
	"github.com/wansing/healthregistry/sqldb/mysql"
	"github.com/wansing/healthregistry/sqldb/postgres"
	"github.com/wansing/healthregistry/sqldb/sqlite3"
	"github.com/wansing/healthregistry/util"
	"github.com/xo/dburl"
	"golang.org/x/crypto/ssh/terminal"
)

func init() {
	log.SetFlags(0) // no log prefixes, on most systems systemd-journald adds them
}

// openDB parses the database url and opens the database.
func openDB(dbArg string) (*sql.DB, string, error) {

	dbURL, err := dburl.Parse(dbArg)
	if err != nil {
		return nil, "", fmt.Errorf("could not parse database url: %w", err)
	}

	var dsn = dbURL.DSN
	if dbURL.Driver == "mysql" {
		// RowsAffected must count matched rows, not changed rows
		if strings.Contains(dsn, "?") {
			dsn += "&clientFoundRows=true"
		} else {
			dsn += "?clientFoundRows=true"
		}
	}

	sqlDB, err := sql.Open(dbURL.Driver, dsn)
	if err != nil {
		return nil, "", fmt.Errorf("could not open sql database: %w", err)
	}

	if err = sqlDB.Ping(); err != nil {
		sqlDB.Close()
		return nil, "", fmt.Errorf("could not ping sql database: %w", err)
	}

	log.Printf("using database %s", dbURL.Redacted())
	return sqlDB, dbURL.Driver, nil
}

func newSessionStore(sqlDB *sql.DB, driver string) (scs.Store, error) {
	switch driver {
	case "mysql":
		return mysql.NewSessionStore(sqlDB)
	case "postgres":
		return postgres.NewSessionStore(sqlDB)
	case "sqlite3":
		return sqlite3.NewSessionStore(sqlDB)
	default:
		return nil, fmt.Errorf("unknown database backend: %s", driver)
	}
}

func main() {

	isInit, err := parseConfig(os.Args[1:])
	if err != nil {
		log.Println(err)
		return
	}

	// database

	sqlDB, driver, err := openDB(viper.GetString("db"))
	if err != nil {
		log.Println(err)
		return
	}

	defer func() {
		log.Println("closing database")
		sqlDB.Close()
	}()

	// base

	var base = strings.Trim(viper.GetString("base"), "/")
	if base != "" {
		base = "/" + base
	}

	// assemble stuff

	sessionStore, err := newSessionStore(sqlDB, driver)
	if err != nil {
		log.Println(err) // log.Fatalln would not run deferred functions
		return
	}

	municipalities, err := core.LoadMunicipalities(viper.GetString("config-dir"))
	if err != nil {
		log.Printf("error loading municipalities: %v", err)
		return
	}

	var db = sqldb.New(sqlDB, driver)
	var authDB = &auth.AuthDB{
		UserDB: sqldb.NewUserDB(db),
	}
	var sessionManager = auth.NewSessionManager(sessionStore, base)

	var coreDB = &core.CoreDB{
		AssessmentDB: sqldb.NewAssessmentDB(db),
		PatientDB:    sqldb.NewPatientDB(db),
		Auth:         authDB,
		Sessions: &auth.Sessions{
			Manager: sessionManager,
			AuthDB:  authDB,
		},
		Notifier:       core.SessionNotifier{Manager: sessionManager},
		Municipalities: municipalities,
	}

	// init

	if isInit {
		coreDB.Notifier = core.LogNotifier{}
		if viper.GetBool("insert") {
			insertUser(coreDB, &auth.Identity{
				ID:           viper.GetString("cpf"),
				Name:         viper.GetString("name"),
				Role:         auth.Role(viper.GetString("role")),
				Municipality: viper.GetString("municipality"),
			})
		}
		return
	}

	if zone := viper.GetString("timezone"); zone != "" {
		location, err := time.LoadLocation(zone)
		if err != nil {
			log.Printf("error loading time zone: %v", err)
			return
		}
		core.Location = location
	}

	if brokers := splitList(viper.GetString("kafka-brokers")); len(brokers) > 0 {
		var sink = events.NewKafkaSink(brokers, viper.GetString("kafka-topic"))
		defer func() {
			if err := sink.Close(); err != nil {
				log.Printf("error closing kafka writer: %v", err)
			}
		}()
		coreDB.Events = sink
		log.Printf("publishing events to %s", strings.Join(brokers, ", "))
	}

	listen(coreDB, cep.NewClient(viper.GetString("viacep-url")), viper.GetString("listen"), base)
}

func insertUser(db *core.CoreDB, u *auth.Identity) {

	if role, err := auth.ParseRole(string(u.Role)); err == nil {
		u.Role = role
	} else {
		log.Println(err)
		return
	}

	if !db.Municipalities.Known(u.Municipality) {
		log.Printf("unknown municipality: %s", u.Municipality)
		return
	}

	fmt.Printf("password for user %s: ", u.Name)
	pass1, err := terminal.ReadPassword(int(os.Stdin.Fd()))
	fmt.Println()
	if err != nil {
		log.Printf("error reading password: %v", err)
		return
	}

	fmt.Printf("repeat password: ")
	pass2, err := terminal.ReadPassword(int(os.Stdin.Fd()))
	fmt.Println()
	if err != nil {
		log.Printf("error reading password: %v", err)
		return
	}

	if !bytes.Equal(pass1, pass2) {
		log.Printf("passwords don't match")
		return
	}

	if err := auth.CheckPassword(string(pass1)); err != nil {
		log.Println(err)
		return
	}

	u.Active = true
	u.CreatedAt = time.Now()
	u.CreatedBy = "init"

	if err := db.Auth.InsertUser(u); err != nil {
		log.Printf("error creating user %s: %v", u.Name, err)
		return
	}

	if err := db.Auth.SetPassword(u.ID, string(pass1)); err != nil {
		log.Printf("error setting password: %v", err)
		return
	}

	db.Notifier.Notify(context.Background(), core.Notification{
		Message: fmt.Sprintf("user %s (%s, %s) has been created", u.Name, u.Role.Label(), u.Municipality),
		Style:   "success",
	})
}

// newHandler wraps the backend into the session and chi middlewares.
func newHandler(db *core.CoreDB, addresses backend.AddressLookup, base string) http.Handler {

	var mux = http.NewServeMux()
	util.Mount(mux, base, backend.NewBackendRouter(db, addresses, base))

	var handler http.Handler = db.Sessions.Manager.LoadAndSave(mux)
	handler = middleware.Recoverer(handler)
	handler = middleware.Logger(handler)
	handler = middleware.RealIP(handler)
	handler = middleware.RequestID(handler)
	return handler
}

func listen(db *core.CoreDB, addresses backend.AddressLookup, addr string, base string) {

	// listener and listen

	sigintChannel := make(chan os.Signal, 1)

	listener, err := net.Listen("tcp", addr)
	if err != nil {
		log.Println(err)
		return
	}

	log.Printf("listening to %s", addr)

	httpSrv := &http.Server{
		Handler:      newHandler(db, addresses, base),
		ReadTimeout:  30 * time.Second,
		WriteTimeout: 30 * time.Second,
	}

	go func() {
		if err := httpSrv.Serve(listener); err != nil {

			// don't panic, we want a graceful shutdown
			if err != http.ErrServerClosed {
				log.Printf("error listening: %v", err)
			}

			// ensure graceful shutdown
			sigintChannel <- os.Interrupt
		}
	}()

	// graceful shutdown

	signal.Notify(sigintChannel, os.Interrupt, syscall.SIGTERM) // SIGINT (Interrupt) or SIGTERM
	<-sigintChannel

	log.Println("shutting down")

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := httpSrv.Shutdown(ctx); err != nil {
		log.Printf("error shutting down: %v", err)
	}
}
