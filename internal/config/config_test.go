package config_test

import (
	"errors"
	"testing"
	"time"

	"github.com/okian/starter/internal/config"
	"github.com/smartystreets/goconvey/convey"
)

func TestConfig_New(t *testing.T) {
	convey.Convey("Given a new config with default options", t, func() {
		cfg := config.New()

		convey.Convey("Then it should have sensible defaults", func() {
			convey.So(cfg.Addr, convey.ShouldEqual, ":3001")
			convey.So(cfg.Greeting, convey.ShouldEqual, "Hello from Go!")
			convey.So(cfg.LogLevel, convey.ShouldEqual, "info")
			convey.So(cfg.LogFormat, convey.ShouldEqual, "text")
			convey.So(cfg.CORSOrigins, convey.ShouldResemble, []string{"*"})
			convey.So(cfg.CORSAllowMethods, convey.ShouldContain, "OPTIONS")
			convey.So(cfg.CORSMaxAge, convey.ShouldEqual, 10*time.Minute)
			convey.So(cfg.ServeSite, convey.ShouldBeTrue)
			convey.So(cfg.ServeDocs, convey.ShouldBeTrue)
			convey.So(cfg.ShutdownTimeout, convey.ShouldEqual, 30*time.Second)
		})

		convey.Convey("And the defaults should validate", func() {
			convey.So(cfg.Validate(), convey.ShouldBeNil)
		})
	})
}

func TestConfig_Validate(t *testing.T) {
	convey.Convey("Given a config", t, func() {
		cfg := config.New()

		cases := []struct {
			name   string
			mutate func(*config.Config)
			want   string
		}{
			{"empty addr", func(c *config.Config) { c.Addr = " " }, "addr must not be empty"},
			{"empty greeting", func(c *config.Config) { c.Greeting = "" }, "greeting must not be empty"},
			{"no origins", func(c *config.Config) { c.CORSOrigins = nil }, "cors_origins must not be empty"},
			{"negative max age", func(c *config.Config) { c.CORSMaxAge = -time.Second }, "cors_max_age must not be negative"},
			{"zero read timeout", func(c *config.Config) { c.ReadTimeout = 0 }, "read_timeout must be at least 1ms"},
			{"nanosecond write timeout", func(c *config.Config) { c.WriteTimeout = 3 }, "write_timeout must be at least 1ms"},
			{"zero shutdown timeout", func(c *config.Config) { c.ShutdownTimeout = 0 }, "shutdown_timeout must be at least 1ms"},
		}

		for _, tc := range cases {
			convey.Convey("When it has "+tc.name, func() {
				tc.mutate(cfg)
				err := cfg.Validate()

				convey.Convey("Then validation should fail with ErrInvalidConfig", func() {
					convey.So(err, convey.ShouldNotBeNil)
					convey.So(errors.Is(err, config.ErrInvalidConfig), convey.ShouldBeTrue)
					convey.So(err.Error(), convey.ShouldContainSubstring, tc.want)
				})
			})
		}
	})
}

func TestTOMLParser(t *testing.T) {
	convey.Convey("Given the TOML parser", t, func() {
		p := config.TOML()

		convey.Convey("When unmarshalling a document", func() {
			out, err := p.Unmarshal([]byte("addr = \":4000\"\ncors_origins = [\"http://a\", \"http://b\"]\n"))

			convey.Convey("Then it should produce a flat map", func() {
				convey.So(err, convey.ShouldBeNil)
				convey.So(out["addr"], convey.ShouldEqual, ":4000")
				convey.So(out["cors_origins"], convey.ShouldHaveLength, 2)
			})

			convey.Convey("And it should marshal back", func() {
				b, err := p.Marshal(out)
				convey.So(err, convey.ShouldBeNil)
				convey.So(string(b), convey.ShouldContainSubstring, "addr = \":4000\"")
			})
		})

		convey.Convey("When unmarshalling invalid TOML", func() {
			_, err := p.Unmarshal([]byte("addr = "))

			convey.Convey("Then it should fail", func() {
				convey.So(err, convey.ShouldNotBeNil)
			})
		})
	})
}
