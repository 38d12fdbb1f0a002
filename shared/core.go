// Copyright (C) 2025 timbastin
//
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as
// published by the Free Software Foundation, either version 3 of the
// License, or (at your option) any later version.
//
// This program is distributed in the hope that it will be useful,
// but WITHOUT ANY WARRANTY; without even the implied warranty of
// MERCHANTABILITY or FITNESS FOR A PARTICULAR PURPOSE.  See the
// GNU Affero General Public License for more details.
//
// You should have received a copy of the GNU Affero General Public License
// along with this program.  If not, see <https://www.gnu.org/licenses/>.

package shared

import (
	"log/slog"
	"os"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/joho/godotenv"
	"github.com/labstack/echo/v4"
	"github.com/lmittmann/tint"
	"github.com/spf13/viper"
	"gorm.io/gorm"
)

type Server = *echo.Group
type MiddlewareFunc = echo.MiddlewareFunc
type Context = echo.Context
type DB = *gorm.DB

var V = validator.New()

func Ptr[T any](t T) *T {
	return &t
}

func SanitizeParam(s string) string {
	// remove trailing or leading slashes
	return strings.Trim(s, "/")
}

// InitLogger initializes the logger with a tint handler.
// tint is a simple logging library that allows to add colors to the log output.
// this is obviously not required, but it makes the logs easier to read.
func InitLogger() {
	w := os.Stderr

	slog.SetDefault(slog.New(
		tint.NewHandler(w, &tint.Options{
			Level:      slog.LevelDebug,
			AddSource:  true,
			TimeFormat: time.Kitchen,
		}),
	))
}

// LoadConfig reads the .env file (if any) and binds the environment into
// viper. All runtime tunables are resolved through viper afterwards.
func LoadConfig() error {
	err := godotenv.Load()

	viper.SetDefault("workerCount", 4)
	viper.SetDefault("embeddingServerURL", "http://localhost:8081/v1")
	viper.SetDefault("callbackTimeout", 10*time.Second)

	viper.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	viper.AutomaticEnv()

	_ = viper.BindEnv("workerCount", "CORRELATION_WORKER_COUNT")
	_ = viper.BindEnv("embeddingServerURL", "EMBEDDING_SERVER_URL")
	_ = viper.BindEnv("embeddingAPIToken", "EMBEDDING_API_TOKEN")
	_ = viper.BindEnv("callbackAPIKey", "CALLBACK_API_KEY")
	_ = viper.BindEnv("callbackTimeout", "CALLBACK_TIMEOUT")

	return err
}

func WorkerCount() int {
	return viper.GetInt("workerCount")
}

func EmbeddingServerURL() string {
	return viper.GetString("embeddingServerURL")
}

func EmbeddingAPIToken() string {
	return viper.GetString("embeddingAPIToken")
}

func CallbackAPIKey() string {
	return viper.GetString("callbackAPIKey")
}

func CallbackTimeout() time.Duration {
	return viper.GetDuration("callbackTimeout")
}
