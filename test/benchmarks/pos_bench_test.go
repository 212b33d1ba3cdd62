// test/benchmarks/pos_bench_test.go
package benchmarks

import (
	"context"
	"io"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"

	redis_a "github.com/ammerola/tajalli-pos/internal/adapters/redis_adapter"
	"github.com/ammerola/tajalli-pos/internal/core/domain"
	"github.com/ammerola/tajalli-pos/internal/core/ports"
	"github.com/ammerola/tajalli-pos/internal/tasks"
	"github.com/ammerola/tajalli-pos/internal/workers"
	"github.com/ammerola/tajalli-pos/test/helpers"
)

func BenchmarkRestockSheetParsing(b *testing.B) {
	data, err := createRestockWorkbook(500)
	if err != nil {
		b.Fatal(err)
	}

	b.ReportAllocs()
	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		if _, err := workers.ParseRestockSheet(tasks.FormatExcel, data); err != nil {
			b.Fatal(err)
		}
	}
}

func BenchmarkReceiptRendering(b *testing.B) {
	sale := createLargeSale(40)
	header := domain.ReceiptHeader{StoreName: "Tajalli Dry Fruits", Currency: "Rs ", Footer: "Thank you"}

	b.Run("Build", func(b *testing.B) {
		b.ReportAllocs()
		for i := 0; i < b.N; i++ {
			_ = domain.NewReceipt(sale, header, "Cashier")
		}
	})

	b.Run("WriteText", func(b *testing.B) {
		receipt := domain.NewReceipt(sale, header, "Cashier")
		b.ReportAllocs()
		b.ResetTimer()
		for i := 0; i < b.N; i++ {
			if err := receipt.WriteText(io.Discard); err != nil {
				b.Fatal(err)
			}
		}
	})
}

func BenchmarkInvoiceLines(b *testing.B) {
	lines := createInvoiceLines(200)
	b.ReportAllocs()
	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		_ = workers.ParseInvoiceLines(lines)
	}
}

func BenchmarkCacheOperations(b *testing.B) {
	mr := miniredis.NewMiniRedis()
	if err := mr.Start(); err != nil {
		b.Fatal(err)
	}
	defer mr.Close()

	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	defer client.Close()

	cache := redis_a.NewCache(client, time.Minute, helpers.TestLogger())
	ctx := context.Background()
	product := helpers.CreateTestProduct()
	key := ports.BuildKey(ports.PrefixProducts, product.ID.String())

	b.Run("Set", func(b *testing.B) {
		for i := 0; i < b.N; i++ {
			_ = cache.Set(ctx, key, product)
		}
	})

	b.Run("Get", func(b *testing.B) {
		_ = cache.Set(ctx, key, product)
		b.ResetTimer()
		for i := 0; i < b.N; i++ {
			var p domain.Product
			_ = cache.Get(ctx, key, &p)
		}
	})
}

// Memory allocation benchmarks
func BenchmarkMemoryAllocation(b *testing.B) {
	b.Run("Sale", func(b *testing.B) {
		b.ReportAllocs()
		for i := 0; i < b.N; i++ {
			_ = createLargeSale(10)
		}
	})

	b.Run("ListResult", func(b *testing.B) {
		items := make([]*domain.Product, 100)
		for i := range items {
			items[i] = helpers.CreateTestProduct()
		}

		b.ReportAllocs()
		b.ResetTimer()
		for i := 0; i < b.N; i++ {
			_ = ports.NewListResult(items, 1, 50, 100)
		}
	})
}
