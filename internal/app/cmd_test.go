package app

import (
	"testing"
)

func TestParseCommand(t *testing.T) {
	tests := []struct {
		name string
		args []string
		want Command
	}{
		{name: "empty", args: []string{}, want: CommandServe},
		{name: "serve", args: []string{"serve"}, want: CommandServe},
		{name: "worker", args: []string{"worker"}, want: CommandWorker},
		{name: "migrate", args: []string{"migrate"}, want: CommandMigrate},
		{name: "migrate_down", args: []string{"migrate", "down", "2"}, want: CommandMigrate},
		{name: "seed", args: []string{"seed"}, want: CommandSeed},
		{name: "healthcheck", args: []string{"healthcheck"}, want: CommandHealthcheck},
		{name: "unknown", args: []string{"unknown"}, want: CommandServe},
		{name: "extra_args", args: []string{"worker", "--flag", "value"}, want: CommandWorker},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := ParseCommand(tt.args); got != tt.want {
				t.Errorf("ParseCommand(%v) = %q, want %q", tt.args, got, tt.want)
			}
		})
	}
}

func TestParseMigrateArgs(t *testing.T) {
	tests := []struct {
		name      string
		args      []string
		want      migrateDirection
		wantSteps int
		wantErr   bool
	}{
		{name: "default_up", args: nil, want: migrateUp},
		{name: "explicit_up", args: []string{"up"}, want: migrateUp},
		{name: "down_default_one", args: []string{"down"}, want: migrateDown, wantSteps: 1},
		{name: "down_n", args: []string{"down", "3"}, want: migrateDown, wantSteps: 3},
		{name: "down_zero", args: []string{"down", "0"}, wantErr: true},
		{name: "down_not_number", args: []string{"down", "x"}, wantErr: true},
		{name: "unknown", args: []string{"sideways"}, wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, steps, err := parseMigrateArgs(tt.args)
			if tt.wantErr {
				if err == nil {
					t.Fatal("expected error, got nil")
				}
				return
			}
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if got != tt.want || steps != tt.wantSteps {
				t.Errorf("parseMigrateArgs(%v) = %q, %d, want %q, %d", tt.args, got, steps, tt.want, tt.wantSteps)
			}
		})
	}
}

func TestParseSeedArgs(t *testing.T) {
	tests := []struct {
		name     string
		args     []string
		wantDemo bool
		wantErr  bool
	}{
		{name: "categories_only", args: nil},
		{name: "demo", args: []string{"--demo"}, wantDemo: true},
		{name: "demo_single_dash", args: []string{"-demo"}, wantDemo: true},
		{name: "unknown", args: []string{"--users"}, wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			demo, err := parseSeedArgs(tt.args)
			if tt.wantErr {
				if err == nil {
					t.Fatal("expected error, got nil")
				}
				return
			}
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if demo != tt.wantDemo {
				t.Errorf("parseSeedArgs(%v) = %v, want %v", tt.args, demo, tt.wantDemo)
			}
		})
	}
}
