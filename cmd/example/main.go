// Command example walks through the cache's contract end to end: batch
// store, single and batch retrieval, update, existence checks,
// statistics, deletion, and clearing. It ports the original library's own
// usage walkthrough.
package main

import (
	"context"
	"fmt"
	"os"

	"github.com/shaigeva/tiercache"
	"go.uber.org/zap"
)

// User is the example's registered record type.
type User struct {
	Version string `json:"schema_version"`
	Name    string `json:"name"`
	Email   string `json:"email"`
	Age     int    `json:"age"`
}

// SchemaVersion satisfies tiercache.Record.
func (User) SchemaVersion() string { return "1.0.0" }

func main() {
	logger, err := zap.NewProduction()
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to initialize logger: %v\n", err)
		os.Exit(1)
	}
	defer logger.Sync()

	cache, err := tiercache.Open[User](tiercache.Options{
		DBPath:             "cache.db",
		MaxMemoryItems:     100,
		MaxMemorySizeBytes: 1024 * 1024,
		MaxDiskItems:       1000,
		MaxDiskSizeBytes:   10 * 1024 * 1024,
		MemoryTTLSeconds:   60,
		DiskTTLSeconds:     3600,
		MaxItemSizeBytes:   10 * 1024,
		Logger:             logger,
	}, tiercache.NewJSONCodec[User]())
	if err != nil {
		logger.Fatal("failed to open cache", zap.Error(err))
	}
	defer cache.Close()

	ctx := context.Background()

	fmt.Println("=== tiercache example ===")

	fmt.Println("1. Storing users...")
	users := map[string]User{
		"user:1": {Version: "1.0.0", Name: "Alice", Email: "alice@example.com", Age: 30},
		"user:2": {Version: "1.0.0", Name: "Bob", Email: "bob@example.com", Age: 25},
		"user:3": {Version: "1.0.0", Name: "Charlie", Email: "charlie@example.com", Age: 35},
	}
	if err := cache.PutMany(ctx, users); err != nil {
		logger.Fatal("put_many failed", zap.Error(err))
	}
	fmt.Printf("   stored %d users\n\n", len(users))

	fmt.Println("2. Retrieving users...")
	if alice, ok, err := cache.Get(ctx, "user:1"); err != nil {
		logger.Fatal("get failed", zap.Error(err))
	} else if ok {
		fmt.Printf("   found: %s (%s), age %d\n", alice.Name, alice.Email, alice.Age)
	}
	if bob, ok, err := cache.Get(ctx, "user:2"); err != nil {
		logger.Fatal("get failed", zap.Error(err))
	} else if ok {
		fmt.Printf("   found: %s (%s), age %d\n\n", bob.Name, bob.Email, bob.Age)
	}

	fmt.Println("3. Batch retrieval...")
	found, err := cache.GetMany(ctx, []string{"user:1", "user:2", "user:3"})
	if err != nil {
		logger.Fatal("get_many failed", zap.Error(err))
	}
	fmt.Printf("   retrieved %d users\n\n", len(found))

	fmt.Println("4. Updating user...")
	if err := cache.Put(ctx, "user:1", User{Version: "1.0.0", Name: "Alice Smith", Email: "alice.smith@example.com", Age: 31}); err != nil {
		logger.Fatal("put failed", zap.Error(err))
	}
	if updated, ok, err := cache.Get(ctx, "user:1"); err != nil {
		logger.Fatal("get failed", zap.Error(err))
	} else if ok {
		fmt.Printf("   updated: %s (%s), age %d\n\n", updated.Name, updated.Email, updated.Age)
	}

	fmt.Println("5. Checking existence...")
	exists1, err := cache.Exists(ctx, "user:1")
	if err != nil {
		logger.Fatal("exists failed", zap.Error(err))
	}
	exists999, err := cache.Exists(ctx, "user:999")
	if err != nil {
		logger.Fatal("exists failed", zap.Error(err))
	}
	fmt.Printf("   user:1 exists: %v\n   user:999 exists: %v\n\n", exists1, exists999)

	fmt.Println("6. Cache statistics...")
	stats, err := cache.Stats(ctx)
	if err != nil {
		logger.Fatal("stats failed", zap.Error(err))
	}
	fmt.Printf("   memory hits: %d\n", stats.MemoryHits)
	fmt.Printf("   disk hits: %d\n", stats.DiskHits)
	fmt.Printf("   misses: %d\n", stats.Misses)
	fmt.Printf("   total operations: %d puts, %d gets\n", stats.TotalPuts, stats.TotalGets)
	fmt.Printf("   current items: %d in memory, %d on disk\n\n", stats.CurrentMemoryItems, stats.CurrentDiskItems)

	fmt.Println("7. Deleting user...")
	if err := cache.Delete(ctx, "user:2"); err != nil {
		logger.Fatal("delete failed", zap.Error(err))
	}
	exists2, err := cache.Exists(ctx, "user:2")
	if err != nil {
		logger.Fatal("exists failed", zap.Error(err))
	}
	fmt.Printf("   deleted user:2\n   user:2 exists: %v\n\n", exists2)

	fmt.Println("8. Cache metrics...")
	count, err := cache.Count(ctx)
	if err != nil {
		logger.Fatal("count failed", zap.Error(err))
	}
	totalSize, err := cache.TotalSize(ctx)
	if err != nil {
		logger.Fatal("total size failed", zap.Error(err))
	}
	fmt.Printf("   total items: %d\n   total size: %d bytes\n\n", count, totalSize)

	fmt.Println("9. Clearing cache...")
	if err := cache.Clear(ctx); err != nil {
		logger.Fatal("clear failed", zap.Error(err))
	}
	count, err = cache.Count(ctx)
	if err != nil {
		logger.Fatal("count failed", zap.Error(err))
	}
	fmt.Printf("   cache cleared\n   total items: %d\n\n", count)

	fmt.Println("=== example complete ===")
}
