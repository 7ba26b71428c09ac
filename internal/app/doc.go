// Package app wires configuration, telemetry, the ingestion pipeline, the
// dataset service and the HTTP surface into one Application.
//
// # Initialization Flow
//
//	1. Ensure the data directories exist
//	2. Initialize OpenTelemetry (tracer, meter, Prometheus handler)
//	3. Create the WebSocket hub and the pipeline runner that publishes to it
//	4. Create the dataset and health services
//	5. Set up the chi router and the HTTP server
//
// # Usage
//
//	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
//	defer stop()
//
//	application, err := app.NewApplication(ctx, cfg, logger)
//	if err != nil {
//	    return err
//	}
//	return application.Run(ctx)
//
// Run returns after ctx is cancelled and the server has drained, or when the
// listener fails.
package app
