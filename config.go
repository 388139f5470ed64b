package main

import (
	"strings"

	"github.com/spf13/pflag"
	"github.com/spf13/viper"
)

const defaultDB = "sqlite3:healthregistry.sqlite3?_busy_timeout=10000&_journal=WAL&_sync=NORMAL&cache=shared"

func setDefaults() {
	viper.SetDefault("base", "")
	viper.SetDefault("config-dir", "config")
	// MySQL: collation should be utf8mb4_unicode_ci
	viper.SetDefault("db", defaultDB)
	viper.SetDefault("kafka-brokers", "")
	viper.SetDefault("kafka-topic", "healthregistry.assessments")
	viper.SetDefault("listen", "127.0.0.1:8080")
	viper.SetDefault("timezone", "America/Campo_Grande")
	viper.SetDefault("viacep-url", "https://viacep.com.br/ws")

	// HEALTHREGISTRY_DB, HEALTHREGISTRY_KAFKA_BROKERS etc.
	viper.SetEnvPrefix("healthregistry")
	viper.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	viper.AutomaticEnv()
}

// commonFlags are in both FlagSets.
func commonFlags(flags *pflag.FlagSet) {
	flags.String("config-dir", viper.GetString("config-dir"), "read municipalities.ini from this `directory`")
	flags.String("db", viper.GetString("db"), "sql database url, see github.com/xo/dburl")
}

func serverFlags() *pflag.FlagSet {
	var flags = pflag.NewFlagSet("healthregistry", pflag.ExitOnError)
	commonFlags(flags)
	// Your reverse proxy must not strip the prefix. So if you're using nginx, the "proxy_pass" value should not end with a slash.
	flags.String("base", viper.GetString("base"), "strip off this `prefix` from every HTTP request and prepend it to every link")
	flags.String("kafka-brokers", viper.GetString("kafka-brokers"), "publish workflow events to these comma-separated `host:port`s, disabled if empty")
	flags.String("kafka-topic", viper.GetString("kafka-topic"), "kafka `topic` of workflow events")
	flags.String("listen", viper.GetString("listen"), "serve HTTP content at this `ip:port`")
	flags.String("timezone", viper.GetString("timezone"), "display times in this IANA `zone`")
	flags.String("viacep-url", viper.GetString("viacep-url"), "base `url` of the CEP lookup service")
	return flags
}

func initFlags() *pflag.FlagSet {
	var flags = pflag.NewFlagSet("init", pflag.ExitOnError)
	commonFlags(flags)
	flags.Bool("insert", false, "creates the given user")
	flags.String("cpf", "", "CPF of the user")
	flags.String("name", "", "name of the user")
	flags.String("role", "admin", "role of the user: agent, coordinator, manager or admin")
	flags.String("municipality", "", "municipality of the user")
	return flags
}

// parseConfig parses the arguments (without the program name) and binds the flags to viper.
// It returns true if the init sub command is given.
func parseConfig(args []string) (bool, error) {

	setDefaults()

	var isInit = len(args) > 0 && args[0] == "init"

	var flags *pflag.FlagSet
	if isInit {
		flags = initFlags()
		args = args[1:]
	} else {
		flags = serverFlags()
	}

	if err := flags.Parse(args); err != nil {
		return isInit, err
	}
	return isInit, viper.BindPFlags(flags)
}

// splitList splits a comma-separated list and removes empty items.
func splitList(s string) []string {
	var result []string
	for _, item := range strings.Split(s, ",") {
		if item = strings.TrimSpace(item); item != "" {
			result = append(result, item)
		}
	}
	return result
}
