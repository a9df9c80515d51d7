package postgres

import (
	"math/big"

	"github.com/jackc/pgx/v5/pgtype"
)

var bigTen = big.NewInt(10)

// numericOrZero 用于 NOT NULL 列，nil 写入 0
func numericOrZero(v *big.Int) pgtype.Numeric {
	if v == nil {
		return pgtype.Numeric{Int: new(big.Int), Valid: true}
	}
	return pgtype.Numeric{Int: new(big.Int).Set(v), Valid: true}
}

// numericOrNull 用于可空列，nil 写入 NULL
func numericOrNull(v *big.Int) pgtype.Numeric {
	if v == nil {
		return pgtype.Numeric{}
	}
	return pgtype.Numeric{Int: new(big.Int).Set(v), Valid: true}
}

// bigFromNumeric numeric 只存整数；Postgres 可能以 Int*10^Exp 的形式返回（如 1000 → 1e3）
func bigFromNumeric(n pgtype.Numeric) *big.Int {
	if !n.Valid || n.Int == nil {
		return nil
	}
	v := new(big.Int).Set(n.Int)
	switch {
	case n.Exp > 0:
		v.Mul(v, new(big.Int).Exp(bigTen, big.NewInt(int64(n.Exp)), nil))
	case n.Exp < 0:
		v.Quo(v, new(big.Int).Exp(bigTen, big.NewInt(int64(-n.Exp)), nil))
	}
	return v
}

func bigOrZero(n pgtype.Numeric) *big.Int {
	if v := bigFromNumeric(n); v != nil {
		return v
	}
	return new(big.Int)
}

func textOrNull(s string) pgtype.Text {
	return pgtype.Text{String: s, Valid: s != ""}
}
