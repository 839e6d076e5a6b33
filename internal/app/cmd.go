package app

import (
	"fmt"
	"strconv"
)

// Command はアプリケーションの起動モードを表す。
type Command string

const (
	// CommandServe はAPIサーバーモードで起動することを示す。
	CommandServe Command = "serve"
	// CommandWorker は期限切れセッションのクリーンアップワーカーとして起動することを示す。
	CommandWorker Command = "worker"
	// CommandMigrate はデータベースマイグレーションを実行することを示す。
	CommandMigrate Command = "migrate"
	// CommandSeed はカテゴリの初期データを投入することを示す。
	// --demoを付けるとデモユーザーとデモ記事も投入する。
	CommandSeed Command = "seed"
	// CommandHealthcheck はヘルスチェックを実行することを示す。
	// distroless環境でのDockerヘルスチェック用。
	CommandHealthcheck Command = "healthcheck"
)

// ParseCommand はコマンドライン引数からサブコマンドを解析する。
// 引数が空またはサポート外のコマンドの場合はCommandServeを返す。
func ParseCommand(args []string) Command {
	if len(args) == 0 {
		return CommandServe
	}

	switch args[0] {
	case "worker":
		return CommandWorker
	case "serve":
		return CommandServe
	case "migrate":
		return CommandMigrate
	case "seed":
		return CommandSeed
	case "healthcheck":
		return CommandHealthcheck
	default:
		return CommandServe
	}
}

// migrateDirection はmigrateサブコマンドの実行方向。
type migrateDirection string

const (
	migrateUp   migrateDirection = "up"
	migrateDown migrateDirection = "down"
)

// parseMigrateArgs はmigrateサブコマンドの引数を解析する。
//
//	migrate            -> up
//	migrate up         -> up
//	migrate down       -> down 1
//	migrate down <N>   -> down N
func parseMigrateArgs(args []string) (migrateDirection, int, error) {
	if len(args) == 0 || args[0] == string(migrateUp) {
		return migrateUp, 0, nil
	}
	if args[0] != string(migrateDown) {
		return "", 0, fmt.Errorf("unknown migrate direction: %q", args[0])
	}
	if len(args) == 1 {
		return migrateDown, 1, nil
	}
	steps, err := strconv.Atoi(args[1])
	if err != nil || steps <= 0 {
		return "", 0, fmt.Errorf("invalid rollback steps: %q", args[1])
	}
	return migrateDown, steps, nil
}

// parseSeedArgs はseedサブコマンドの引数を解析し、デモデータを投入するかを返す。
//
//	seed          -> カテゴリのみ
//	seed --demo   -> カテゴリ + デモユーザー・記事
func parseSeedArgs(args []string) (bool, error) {
	demo := false
	for _, arg := range args {
		switch arg {
		case "--demo", "-demo":
			demo = true
		default:
			return false, fmt.Errorf("unknown seed argument: %q", arg)
		}
	}
	return demo, nil
}
