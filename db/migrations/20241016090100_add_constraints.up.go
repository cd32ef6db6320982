package migrations

import (
	"context"
	"fmt"

	"github.com/uptrace/bun"
)

func init() {
	Migrations.MustRegister(func(ctx context.Context, db *bun.DB) error {

		if db.Dialect().Name().String() != "pg" {
			fmt.Printf("\033[1;31m%s\033[0m", "You are not using PostgreSQL. DB level checks can not be enabled!\n")
			return nil
		}
		sql := `
			-- transfer and channel rows only carry known states
				ALTER TABLE onchain_transfers
				ADD CONSTRAINT check_onchain_status
				CHECK (status IN ('WAITING_COUNTERPARTY', 'WAITING_CONFIRMATIONS', 'SETTLED', 'FAILED'));

				ALTER TABLE ln_payments
				ADD CONSTRAINT check_ln_status
				CHECK (status IN ('PENDING', 'SUCCESS', 'FAILED'));

				ALTER TABLE channels
				ADD CONSTRAINT check_channel_status
				CHECK (status IN ('OPENING', 'OPEN', 'CLOSING', 'FORCE_CLOSING', 'CLOSED'));

			-- usable implies ready
				ALTER TABLE channels
				ADD CONSTRAINT check_usable_ready
				CHECK (NOT is_usable OR ready);

			-- terminal transfers never change status again
				CREATE OR REPLACE FUNCTION check_terminal_transfer()
					RETURNS TRIGGER AS $$
				BEGIN
					IF OLD.status IN ('SETTLED', 'FAILED') AND NEW.status != OLD.status
					THEN
						RAISE EXCEPTION 'terminal transfer [idx:%] cannot move from % to %',
						OLD.idx,
						OLD.status,
						NEW.status;
					END IF;
					IF NEW.updated_at < OLD.updated_at
					THEN
						RAISE EXCEPTION 'transfer [idx:%] updated_at moved backwards', OLD.idx;
					END IF;
					RETURN NEW;
				END;
				$$ LANGUAGE plpgsql;
				CREATE TRIGGER check_terminal_transfer
				BEFORE UPDATE ON onchain_transfers
				FOR EACH ROW EXECUTE PROCEDURE check_terminal_transfer();
		`
		if _, err := db.Exec(sql); err != nil {
			return err
		}
		return nil
	}, nil)
}
