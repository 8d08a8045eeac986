package routes

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/angelmondragon/tillpoint-backend/api/controllers"
	"github.com/angelmondragon/tillpoint-backend/api/middleware"
	"github.com/angelmondragon/tillpoint-backend/internal/backend"
	"github.com/angelmondragon/tillpoint-backend/internal/cart"
	"github.com/angelmondragon/tillpoint-backend/pkg/config"
	"github.com/angelmondragon/tillpoint-backend/pkg/logger"
	"github.com/angelmondragon/tillpoint-backend/pkg/redis"
)

func NewRouter(
	cfg *config.Config,
	logg *logger.Logger,
	redisClient *redis.Client,
	backendClient *backend.Client,
	registry *cart.Registry,
	metricsHandler http.Handler,
) http.Handler {
	r := chi.NewRouter()
	r.Use(
		middleware.Recoverer(logg),
		middleware.RequestID(logg),
		middleware.Logging(logg),
		middleware.CORS(),
	)

	r.Route("/health", func(r chi.Router) {
		r.Get("/live", controllers.HealthLive(cfg))
		r.Get("/ready", controllers.HealthReady(cfg, logg, redisPinger(redisClient)))
	})

	if metricsHandler == nil {
		metricsHandler = promhttp.Handler()
	}
	r.Method(http.MethodGet, "/metrics", metricsHandler)

	r.Route("/api/v1", func(r chi.Router) {
		r.Route("/products", func(r chi.Router) {
			r.Get("/", controllers.ProductSearch(backendClient, logg))
			r.Get("/{productID}", controllers.ProductFetch(backendClient, logg))
		})

		r.Post("/sessions", controllers.SessionOpen(registry, logg))
		r.Route("/sessions/{sessionID}", func(r chi.Router) {
			r.Delete("/", controllers.SessionClose(registry, logg))

			r.Route("/cart", func(r chi.Router) {
				r.Get("/", controllers.CartFetch(registry, logg))
				r.Delete("/", controllers.CartClear(registry, logg))
				r.Post("/customer", controllers.CartSetCustomer(registry, logg))
				r.Post("/warehouse", controllers.CartSetWarehouse(registry, logg))
				r.Post("/price-list", controllers.CartSetPriceList(registry, logg))
				r.Post("/document-type", controllers.CartSetDocumentType(registry, logg))
				r.Post("/discount", controllers.CartSetGlobalDiscount(registry, logg))
				r.Get("/pending-binding", controllers.PendingBinding(registry, logg))

				r.Post("/items", controllers.CartAddItem(registry, logg))
				r.Route("/items/{lineID}", func(r chi.Router) {
					r.Patch("/quantity", controllers.CartSetQuantity(registry, logg))
					r.Delete("/", controllers.CartRemoveItem(registry, logg))
					r.Post("/discount", controllers.CartSetLineDiscount(registry, logg))
					r.Post("/price", controllers.CartPriceOverride(registry, logg))
					r.Get("/lots", controllers.LotCandidates(registry, logg))
					r.Post("/lot", controllers.BindLot(registry, logg))
					r.Get("/serials", controllers.SerialCandidates(registry, logg))
					r.Post("/serial", controllers.BindSerial(registry, logg))
				})

				r.Post("/payments", controllers.TenderAdd(registry, logg))
				r.Delete("/payments", controllers.TenderRemove(registry, logg))
				r.Post("/submit", controllers.SaleSubmit(registry, logg))
			})
		})
	})

	return r
}

func redisPinger(client *redis.Client) redis.Pinger {
	if client == nil {
		return nil
	}
	return client
}
