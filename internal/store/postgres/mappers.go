package postgres

import (
	"fmt"
	"strings"

	"meteora-indexer-sol/internal/model"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgtype"
)

// tableMapper 描述一张表的列、写入参数与行扫描。columns[0] 必须是主键 id。
type tableMapper struct {
	columns []string
	args    func(e model.Entity) []any
	scan    func(row pgx.Row) (model.Entity, error)

	upsertSQL string
	selectSQL string
}

var mappers [model.TableCount]*tableMapper

func init() {
	mappers[model.TableBasePool] = &tableMapper{
		columns: []string{"id", "token_x", "token_y", "token_x_vault", "token_y_vault",
			"reserve_x", "reserve_y", "total_liquidity", "created_at", "updated_at", "status"},
		args: func(e model.Entity) []any {
			p := e.(*model.BasePool)
			return []any{p.ID, p.TokenX, p.TokenY, p.TokenXVault, p.TokenYVault,
				numericOrZero(p.ReserveX), numericOrZero(p.ReserveY), numericOrZero(p.TotalLiquidity),
				p.CreatedAt, p.UpdatedAt, p.Status}
		},
		scan: func(row pgx.Row) (model.Entity, error) {
			var p model.BasePool
			var rx, ry, tl pgtype.Numeric
			if err := row.Scan(&p.ID, &p.TokenX, &p.TokenY, &p.TokenXVault, &p.TokenYVault,
				&rx, &ry, &tl, &p.CreatedAt, &p.UpdatedAt, &p.Status); err != nil {
				return nil, err
			}
			p.ReserveX, p.ReserveY, p.TotalLiquidity = bigOrZero(rx), bigOrZero(ry), bigOrZero(tl)
			return &p, nil
		},
	}

	mappers[model.TableDammPool] = &tableMapper{
		columns: []string{"id", "lp_mint", "a_vault", "b_vault", "a_vault_lp_mint", "b_vault_lp_mint",
			"curve_type", "base_pool_id"},
		args: func(e model.Entity) []any {
			p := e.(*model.DammPool)
			return []any{p.ID, p.LpMint, p.AVault, p.BVault, p.AVaultLpMint, p.BVaultLpMint, p.CurveType, p.BasePoolID}
		},
		scan: func(row pgx.Row) (model.Entity, error) {
			var p model.DammPool
			if err := row.Scan(&p.ID, &p.LpMint, &p.AVault, &p.BVault, &p.AVaultLpMint, &p.BVaultLpMint,
				&p.CurveType, &p.BasePoolID); err != nil {
				return nil, err
			}
			return &p, nil
		},
	}

	mappers[model.TableDlmmPool] = &tableMapper{
		columns: []string{"id", "bin_step", "active_id", "activation_point", "pre_activation_duration",
			"pre_activation_swap_address", "base_pool_id"},
		args: func(e model.Entity) []any {
			p := e.(*model.DlmmPool)
			return []any{p.ID, p.BinStep, p.ActiveID, numericOrNull(p.ActivationPoint),
				numericOrNull(p.PreActivationDuration), textOrNull(p.PreActivationSwapAddress), p.BasePoolID}
		},
		scan: func(row pgx.Row) (model.Entity, error) {
			var p model.DlmmPool
			var ap, pad pgtype.Numeric
			var swapAddr pgtype.Text
			if err := row.Scan(&p.ID, &p.BinStep, &p.ActiveID, &ap, &pad, &swapAddr, &p.BasePoolID); err != nil {
				return nil, err
			}
			p.ActivationPoint, p.PreActivationDuration = bigFromNumeric(ap), bigFromNumeric(pad)
			p.PreActivationSwapAddress = swapAddr.String
			return &p, nil
		},
	}

	mappers[model.TableDammPosition] = &tableMapper{
		columns: []string{"id", "owner", "lp_token_amount", "created_at", "updated_at", "pool_id"},
		args: func(e model.Entity) []any {
			p := e.(*model.DammPosition)
			return []any{p.ID, p.Owner, numericOrZero(p.LpTokenAmount), p.CreatedAt, p.UpdatedAt, p.PoolID}
		},
		scan: func(row pgx.Row) (model.Entity, error) {
			var p model.DammPosition
			var lp pgtype.Numeric
			if err := row.Scan(&p.ID, &p.Owner, &lp, &p.CreatedAt, &p.UpdatedAt, &p.PoolID); err != nil {
				return nil, err
			}
			p.LpTokenAmount = bigOrZero(lp)
			return &p, nil
		},
	}

	mappers[model.TableDlmmPosition] = &tableMapper{
		columns: []string{"id", "owner", "operator", "lower_bin_id", "upper_bin_id", "liquidity",
			"token_x_amount", "token_y_amount", "fee_owner", "lock_release_point", "created_at", "updated_at", "pool_id"},
		args: func(e model.Entity) []any {
			p := e.(*model.DlmmPosition)
			return []any{p.ID, p.Owner, p.Operator, p.LowerBinID, p.UpperBinID, numericOrZero(p.Liquidity),
				numericOrZero(p.TokenXAmount), numericOrZero(p.TokenYAmount), p.FeeOwner,
				numericOrZero(p.LockReleasePoint), p.CreatedAt, p.UpdatedAt, p.PoolID}
		},
		scan: func(row pgx.Row) (model.Entity, error) {
			var p model.DlmmPosition
			var liq, x, y, lrp pgtype.Numeric
			if err := row.Scan(&p.ID, &p.Owner, &p.Operator, &p.LowerBinID, &p.UpperBinID, &liq,
				&x, &y, &p.FeeOwner, &lrp, &p.CreatedAt, &p.UpdatedAt, &p.PoolID); err != nil {
				return nil, err
			}
			p.Liquidity, p.TokenXAmount, p.TokenYAmount = bigOrZero(liq), bigOrZero(x), bigOrZero(y)
			p.LockReleasePoint = bigOrZero(lrp)
			return &p, nil
		},
	}

	mappers[model.TableDammSwap] = &tableMapper{
		columns: []string{"id", "user_address", "token_in_mint", "token_out_mint", "amount_in", "amount_out",
			`"timestamp"`, "pool_id"},
		args: func(e model.Entity) []any {
			s := e.(*model.DammSwap)
			return []any{s.ID, s.UserAddress, s.TokenInMint, s.TokenOutMint,
				numericOrZero(s.AmountIn), numericOrZero(s.AmountOut), s.Timestamp, s.PoolID}
		},
		scan: func(row pgx.Row) (model.Entity, error) {
			var s model.DammSwap
			var in, out pgtype.Numeric
			if err := row.Scan(&s.ID, &s.UserAddress, &s.TokenInMint, &s.TokenOutMint, &in, &out,
				&s.Timestamp, &s.PoolID); err != nil {
				return nil, err
			}
			s.AmountIn, s.AmountOut = bigOrZero(in), bigOrZero(out)
			return &s, nil
		},
	}

	mappers[model.TableDlmmSwap] = &tableMapper{
		columns: []string{"id", "user_address", "token_in_mint", "token_out_mint", "token_in_address",
			"token_out_address", "amount_in", "amount_out", "price_impact_bps", `"timestamp"`, "pool_id"},
		args: func(e model.Entity) []any {
			s := e.(*model.DlmmSwap)
			return []any{s.ID, s.UserAddress, s.TokenInMint, s.TokenOutMint, s.TokenInAddress, s.TokenOutAddress,
				numericOrZero(s.AmountIn), numericOrZero(s.AmountOut), s.PriceImpactBps, s.Timestamp, s.PoolID}
		},
		scan: func(row pgx.Row) (model.Entity, error) {
			var s model.DlmmSwap
			var in, out pgtype.Numeric
			if err := row.Scan(&s.ID, &s.UserAddress, &s.TokenInMint, &s.TokenOutMint, &s.TokenInAddress,
				&s.TokenOutAddress, &in, &out, &s.PriceImpactBps, &s.Timestamp, &s.PoolID); err != nil {
				return nil, err
			}
			s.AmountIn, s.AmountOut = bigOrZero(in), bigOrZero(out)
			return &s, nil
		},
	}

	mappers[model.TableDammLiquidityChange] = &tableMapper{
		columns: []string{"id", "type", "token_x_amount", "token_y_amount", "lp_token_amount", `"timestamp"`,
			"pool_id", "position_id"},
		args: func(e model.Entity) []any {
			c := e.(*model.DammLiquidityChange)
			return []any{c.ID, string(c.Type), numericOrZero(c.TokenXAmount), numericOrZero(c.TokenYAmount),
				numericOrZero(c.LpTokenAmount), c.Timestamp, c.PoolID, c.PositionID}
		},
		scan: func(row pgx.Row) (model.Entity, error) {
			var c model.DammLiquidityChange
			var typ string
			var x, y, lp pgtype.Numeric
			if err := row.Scan(&c.ID, &typ, &x, &y, &lp, &c.Timestamp, &c.PoolID, &c.PositionID); err != nil {
				return nil, err
			}
			c.Type = model.LiquidityChangeType(typ)
			c.TokenXAmount, c.TokenYAmount, c.LpTokenAmount = bigOrZero(x), bigOrZero(y), bigOrZero(lp)
			return &c, nil
		},
	}

	mappers[model.TableDlmmLiquidityChange] = &tableMapper{
		columns: []string{"id", "type", "token_x_amount", "token_y_amount", `"timestamp"`, "pool_id", "position_id"},
		args: func(e model.Entity) []any {
			c := e.(*model.DlmmLiquidityChange)
			return []any{c.ID, string(c.Type), numericOrZero(c.TokenXAmount), numericOrZero(c.TokenYAmount),
				c.Timestamp, c.PoolID, c.PositionID}
		},
		scan: func(row pgx.Row) (model.Entity, error) {
			var c model.DlmmLiquidityChange
			var typ string
			var x, y pgtype.Numeric
			if err := row.Scan(&c.ID, &typ, &x, &y, &c.Timestamp, &c.PoolID, &c.PositionID); err != nil {
				return nil, err
			}
			c.Type = model.LiquidityChangeType(typ)
			c.TokenXAmount, c.TokenYAmount = bigOrZero(x), bigOrZero(y)
			return &c, nil
		},
	}

	mappers[model.TableDammFee] = &tableMapper{
		columns: []string{"id", "owner", "token_x_amount", "token_y_amount", `"timestamp"`, "pool_id"},
		args: func(e model.Entity) []any {
			f := e.(*model.DammFee)
			return []any{f.ID, f.Owner, numericOrZero(f.TokenXAmount), numericOrZero(f.TokenYAmount), f.Timestamp, f.PoolID}
		},
		scan: func(row pgx.Row) (model.Entity, error) {
			var f model.DammFee
			var x, y pgtype.Numeric
			if err := row.Scan(&f.ID, &f.Owner, &x, &y, &f.Timestamp, &f.PoolID); err != nil {
				return nil, err
			}
			f.TokenXAmount, f.TokenYAmount = bigOrZero(x), bigOrZero(y)
			return &f, nil
		},
	}

	mappers[model.TableDlmmFee] = &tableMapper{
		columns: []string{"id", "pool_id", "position", `"user"`, "amount_x", "amount_y", "type", `"timestamp"`},
		args: func(e model.Entity) []any {
			f := e.(*model.DlmmFee)
			return []any{f.ID, f.PoolID, f.Position, f.User, numericOrZero(f.AmountX), numericOrZero(f.AmountY),
				string(f.Type), f.Timestamp}
		},
		scan: func(row pgx.Row) (model.Entity, error) {
			var f model.DlmmFee
			var typ string
			var x, y pgtype.Numeric
			if err := row.Scan(&f.ID, &f.PoolID, &f.Position, &f.User, &x, &y, &typ, &f.Timestamp); err != nil {
				return nil, err
			}
			f.Type = model.FeeType(typ)
			f.AmountX, f.AmountY = bigOrZero(x), bigOrZero(y)
			return &f, nil
		},
	}

	mappers[model.TableDammLock] = &tableMapper{
		columns: []string{"id", "owner", "amount", "created_at", "updated_at", "pool_id"},
		args: func(e model.Entity) []any {
			l := e.(*model.DammLock)
			return []any{l.ID, l.Owner, numericOrZero(l.Amount), l.CreatedAt, l.UpdatedAt, l.PoolID}
		},
		scan: func(row pgx.Row) (model.Entity, error) {
			var l model.DammLock
			var amount pgtype.Numeric
			if err := row.Scan(&l.ID, &l.Owner, &amount, &l.CreatedAt, &l.UpdatedAt, &l.PoolID); err != nil {
				return nil, err
			}
			l.Amount = bigOrZero(amount)
			return &l, nil
		},
	}

	mappers[model.TableDlmmReward] = &tableMapper{
		columns: []string{"id", "reward_index", "reward_duration", "funder", "amount", "last_update_time",
			"created_at", "pool_id"},
		args: func(e model.Entity) []any {
			r := e.(*model.DlmmReward)
			return []any{r.ID, r.RewardIndex, numericOrZero(r.RewardDuration), r.Funder, numericOrZero(r.Amount),
				r.LastUpdateTime, r.CreatedAt, r.PoolID}
		},
		scan: func(row pgx.Row) (model.Entity, error) {
			var r model.DlmmReward
			var duration, amount pgtype.Numeric
			if err := row.Scan(&r.ID, &r.RewardIndex, &duration, &r.Funder, &amount, &r.LastUpdateTime,
				&r.CreatedAt, &r.PoolID); err != nil {
				return nil, err
			}
			r.RewardDuration, r.Amount = bigOrZero(duration), bigOrZero(amount)
			return &r, nil
		},
	}

	for table, m := range mappers {
		if m == nil {
			panic(fmt.Sprintf("postgres: missing mapper for %s", model.Table(table)))
		}
		m.upsertSQL = buildUpsert(model.Table(table), m.columns)
		m.selectSQL = fmt.Sprintf("SELECT %s FROM %s WHERE id = $1", strings.Join(m.columns, ", "), model.Table(table))
	}
}

// buildUpsert 事件表重放时保持首次写入；实体表覆盖全部非主键列
func buildUpsert(table model.Table, columns []string) string {
	placeholders := make([]string, len(columns))
	for i := range columns {
		placeholders[i] = fmt.Sprintf("$%d", i+1)
	}
	query := fmt.Sprintf("INSERT INTO %s (%s) VALUES (%s) ON CONFLICT (id) ",
		table, strings.Join(columns, ", "), strings.Join(placeholders, ", "))

	if table.IsEvent() {
		return query + "DO NOTHING"
	}
	sets := make([]string, 0, len(columns)-1)
	for _, col := range columns[1:] {
		if col == "created_at" {
			continue
		}
		sets = append(sets, fmt.Sprintf("%s = EXCLUDED.%s", col, col))
	}
	return query + "DO UPDATE SET " + strings.Join(sets, ", ")
}
