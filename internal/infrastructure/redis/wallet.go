package redis

import (
	"auction-house/internal/domain"
	"context"
	"errors"
	"fmt"
	"strconv"

	"github.com/go-redis/redis/v8"
	"github.com/shopspring/decimal"
)

const walletKey = "market:wallets"

// Balances are kept in minor units so Lua arithmetic stays exact.
const minorUnitScale = 2

var withdrawScript = redis.NewScript(`
	local balance = tonumber(redis.call('HGET', KEYS[1], ARGV[1]) or ARGV[3])
	local amount = tonumber(ARGV[2])

	if balance < amount then
		return {0, balance}
	end

	redis.call('HSET', KEYS[1], ARGV[1], balance - amount)
	return {1, balance - amount}
`)

var depositScript = redis.NewScript(`
	local balance = tonumber(redis.call('HGET', KEYS[1], ARGV[1]) or ARGV[3])
	local updated = balance + tonumber(ARGV[2])

	redis.call('HSET', KEYS[1], ARGV[1], updated)
	return updated
`)

// RedisWallet is a WalletLedger shared by every service instance. Withdraw
// checks and debits in one script so balances never go negative.
type RedisWallet struct {
	client  *redis.Client
	opening int64
	symbol  string
}

func NewRedisWallet(client *redis.Client, symbol string, opening decimal.Decimal) *RedisWallet {
	return &RedisWallet{
		client:  client,
		opening: toMinor(opening),
		symbol:  symbol,
	}
}

func (w *RedisWallet) HasBalance(ctx context.Context, actorID string, amount decimal.Decimal) (bool, error) {
	balance, err := w.balance(ctx, actorID)
	if err != nil {
		return false, err
	}
	return balance >= toMinor(amount), nil
}

func (w *RedisWallet) Balance(ctx context.Context, actorID string) (decimal.Decimal, error) {
	balance, err := w.balance(ctx, actorID)
	if err != nil {
		return decimal.Zero, err
	}
	return fromMinor(balance), nil
}

func (w *RedisWallet) Withdraw(ctx context.Context, actorID string, amount decimal.Decimal, memo string) error {
	minor := toMinor(amount)
	if minor < 0 {
		return fmt.Errorf("withdraw %s from %s (%s): negative amount", amount, actorID, memo)
	}

	result, err := withdrawScript.Run(ctx, w.client, []string{walletKey}, actorID, minor, w.opening).Result()
	if err != nil {
		return err
	}

	values, ok := result.([]interface{})
	if !ok || len(values) != 2 {
		return fmt.Errorf("unexpected withdraw result %v", result)
	}
	if values[0].(int64) != 1 {
		return fmt.Errorf("%w: %s has %s, needs %s (%s)", domain.ErrInsufficientFunds,
			actorID, w.Format(fromMinor(values[1].(int64))), w.Format(amount), memo)
	}
	return nil
}

func (w *RedisWallet) Deposit(ctx context.Context, actorID string, amount decimal.Decimal, memo string) error {
	minor := toMinor(amount)
	if minor < 0 {
		return fmt.Errorf("deposit %s to %s (%s): negative amount", amount, actorID, memo)
	}

	return depositScript.Run(ctx, w.client, []string{walletKey}, actorID, minor, w.opening).Err()
}

func (w *RedisWallet) Format(amount decimal.Decimal) string {
	return w.symbol + amount.StringFixed(minorUnitScale)
}

func (w *RedisWallet) balance(ctx context.Context, actorID string) (int64, error) {
	raw, err := w.client.HGet(ctx, walletKey, actorID).Result()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return w.opening, nil
		}
		return 0, err
	}
	return strconv.ParseInt(raw, 10, 64)
}

func toMinor(amount decimal.Decimal) int64 {
	return amount.Shift(minorUnitScale).Round(0).IntPart()
}

func fromMinor(minor int64) decimal.Decimal {
	return decimal.New(minor, -minorUnitScale)
}
