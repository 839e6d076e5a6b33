package repository

import (
	"errors"
	"fmt"

	"github.com/lib/pq"
)

var (
	// ErrDuplicate は一意制約違反を表す。
	ErrDuplicate = errors.New("duplicate key")
	// ErrForeignKeyViolation は外部キー制約違反を表す。
	ErrForeignKeyViolation = errors.New("foreign key violation")
)

// PostgreSQLのエラーコード
const (
	pqUniqueViolation     = "23505"
	pqForeignKeyViolation = "23503"
)

// classifyError はPostgreSQLの制約違反エラーをセンチネルエラーでラップする。
// 元のエラーもerrors.Asで取り出せるように保持する。
func classifyError(err error) error {
	var pqErr *pq.Error
	if !errors.As(err, &pqErr) {
		return err
	}
	switch string(pqErr.Code) {
	case pqUniqueViolation:
		return fmt.Errorf("%w: %w", ErrDuplicate, err)
	case pqForeignKeyViolation:
		return fmt.Errorf("%w: %w", ErrForeignKeyViolation, err)
	}
	return err
}
