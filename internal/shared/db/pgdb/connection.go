package pgdb

import (
	"context"
	"fmt"
	"time"

	"bustrack/internal/config"
	"bustrack/internal/mylogger"

	"github.com/jackc/pgx/v5/pgxpool"
)

type DataBase struct {
	cfg   *config.DBconfig
	mylog mylogger.Logger
	pool  *pgxpool.Pool
}

// ConnectDB opens a pool and pings it, retrying with a linear backoff.
func ConnectDB(ctx context.Context, dbCfg *config.DBconfig, mylog mylogger.Logger) (*DataBase, error) {
	d := &DataBase{
		cfg:   dbCfg,
		mylog: mylog.Action("db_connect"),
	}

	if err := d.connect(ctx); err != nil {
		return nil, err
	}

	return d, nil
}

func (d *DataBase) Pool() *pgxpool.Pool {
	return d.pool
}

func (d *DataBase) Close() error {
	if d.pool != nil {
		d.pool.Close()
	}
	return nil
}

func (d *DataBase) IsAlive(ctx context.Context) error {
	if d.pool == nil {
		return fmt.Errorf("DB is not initialized")
	}
	if err := d.pool.Ping(ctx); err != nil {
		return fmt.Errorf("ping failed: %w", err)
	}
	return nil
}

func (d *DataBase) connect(ctx context.Context) error {
	attempts := max(d.cfg.MaxRetries, 1)

	var lastErr error
	for i := 0; i < attempts; i++ {
		pool, err := pgxpool.New(ctx, d.cfg.DSN())
		if err == nil {
			err = pool.Ping(ctx)
			if err != nil {
				pool.Close()
			}
		}
		if err != nil {
			lastErr = err
			d.mylog.Warn("DB connection attempt failed", "attempt", i+1, "error", err.Error())

			select {
			case <-ctx.Done():
				return ctx.Err()
			case <-time.After(time.Second * time.Duration(i+1)):
			}
			continue
		}

		d.pool = pool
		d.mylog.Info("Successfully connected to the database")
		return nil
	}

	return fmt.Errorf("failed to connect to the database after %d attempts: %w", attempts, lastErr)
}
