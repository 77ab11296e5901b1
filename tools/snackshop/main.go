// Command snackshop browses the catalog and pays unpaid orders from a terminal.
// Unpaid orders are kept in a local badger database so they survive restarts.
package main

import (
	"bufio"
	"context"
	"flag"
	"fmt"
	"log"
	"net/url"
	"os"
	"os/signal"
	"time"

	"github.com/golang-jwt/jwt/v4"
	"go.uber.org/zap"

	"github.com/yashrajoria/bms-storefront/clients"
	"github.com/yashrajoria/bms-storefront/database"
	"github.com/yashrajoria/bms-storefront/ledger"
	"github.com/yashrajoria/bms-storefront/listing"
	"github.com/yashrajoria/bms-storefront/logger"
	"github.com/yashrajoria/bms-storefront/models"
	"github.com/yashrajoria/bms-storefront/payment"
)

func main() {
	var apiURL, dataDir, token, snapURL, env string
	flag.StringVar(&apiURL, "api", os.Getenv("API_BASE_URL"), "store API base URL")
	flag.StringVar(&dataDir, "data", defaultDataDir(), "directory for the local unpaid-order store (empty keeps it in memory)")
	flag.StringVar(&token, "token", os.Getenv("BMS_TOKEN"), "bearer token for cart, orders and payments")
	flag.StringVar(&snapURL, "snap-url", "https://app.sandbox.midtrans.com/snap/snap.js", "Snap script URL")
	flag.StringVar(&env, "env", "development", "log format: development or production")
	flag.Parse()

	if apiURL == "" {
		log.Fatal("API_BASE_URL must be set or provided via -api")
	}

	zapLogger := logger.MustNew(env)
	defer func() { _ = zapLogger.Sync() }()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	db, err := database.OpenBadger(dataDir)
	if err != nil {
		log.Fatalf("badger: %v", err)
	}
	defer db.Close()

	userID := tokenSubject(token)
	api := clients.NewStoreAPI(clients.NewGatewayClient(apiURL, 10*time.Second))
	ledgers := ledger.NewOpener(database.BadgerUserSlots(db, "snackshop"), zapLogger)
	payments := payment.NewService(api, ledgers, payment.NewMemoryAttemptStore(time.Hour),
		payment.NewReconciler(nil, nil, "", nil, zapLogger), zapLogger)

	products := listing.NewController(ctx, listing.Products, productFetcher(api), zapLogger)
	defer products.Close()

	in := bufio.NewReader(os.Stdin)
	sh := &shell{
		ctx:      ctx,
		userID:   userID,
		token:    token,
		products: products,
		ledgers:  ledgers,
		payments: payments,
		widget:   &payment.PromptWidget{SnapURL: snapURL, In: in, Out: os.Stdout},
		in:       in,
		out:      os.Stdout,
	}
	products.OnChange(sh.render)

	zapLogger.Debug("snackshop started", zap.String("api", apiURL), zap.String("user", userID))
	products.Refresh()
	products.Wait()

	if err := sh.run(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func productFetcher(api *clients.StoreAPI) listing.FetchFunc[models.Product] {
	return func(ctx context.Context, params url.Values) (listing.Page[models.Product], error) {
		items, page, err := api.ListProducts(ctx, params)
		if err != nil {
			return listing.Page[models.Product]{}, err
		}
		return listing.Page[models.Product]{Items: items, Pagination: page}, nil
	}
}

// tokenSubject names the local ledger after the token's user. The token is
// not verified here; the API does that.
func tokenSubject(token string) string {
	if token == "" {
		return "guest"
	}
	claims := jwt.MapClaims{}
	if _, _, err := jwt.NewParser().ParseUnverified(token, claims); err != nil {
		return "guest"
	}
	for _, key := range []string{"sub", "user_id", "id"} {
		switch v := claims[key].(type) {
		case string:
			if v != "" {
				return v
			}
		case float64:
			return fmt.Sprintf("%.0f", v)
		}
	}
	return "guest"
}

func defaultDataDir() string {
	dir, err := os.UserConfigDir()
	if err != nil {
		return ""
	}
	return dir + "/snackshop"
}
