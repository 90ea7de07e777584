package metrics

// PricingRow holds the unit prices for one backend service. Prices are USD:
// per query, per GB-month of storage, and per GB indexed.
type PricingRow struct {
	PerQuery   float64 `json:"per_query"`
	StorageGB  float64 `json:"storage_gb_month"`
	IndexingGB float64 `json:"indexing_gb"`
}

// servicePricing lists published unit prices for the cloud services the
// harness knows about. Local backends cost nothing to query.
var servicePricing = map[string]PricingRow{
	"aws-bedrock-kb": {PerQuery: 0.0008, StorageGB: 0.025, IndexingGB: 0.05},
	"gcp-vertex":     {PerQuery: 0.0015, StorageGB: 0.03, IndexingGB: 0.06},
	"simple-store":   {PerQuery: 0, StorageGB: 0, IndexingGB: 0},
	"badger-store":   {PerQuery: 0, StorageGB: 0, IndexingGB: 0},
	"local-memory":   {PerQuery: 0, StorageGB: 0, IndexingGB: 0},
	"redis-memory":   {PerQuery: 0, StorageGB: 0, IndexingGB: 0},
}

// defaultPricing applies to services without a pricing row.
var defaultPricing = PricingRow{PerQuery: 0.001, StorageGB: 0.02, IndexingGB: 0.04}

// CostEstimate projects monthly spend from observed usage.
type CostEstimate struct {
	Service              string  `json:"service"`
	QueryCost            float64 `json:"query_cost"`
	StorageCost          float64 `json:"storage_cost"`
	IndexCost            float64 `json:"index_cost"`
	EstimatedMonthlyCost float64 `json:"estimated_monthly_cost"`
}

// EstimateCost projects the monthly cost of running a service at the given
// query volume and storage footprint. The one-time index cost is reported in
// IndexCost but deliberately excluded from EstimatedMonthlyCost, which
// covers recurring spend only.
func EstimateCost(service string, queriesPerDay float64, storageGB float64) CostEstimate {
	pricing, ok := servicePricing[service]
	if !ok {
		pricing = defaultPricing
	}

	queryCost := queriesPerDay * 30 * pricing.PerQuery
	storageCost := storageGB * pricing.StorageGB
	indexCost := storageGB * pricing.IndexingGB

	return CostEstimate{
		Service:              service,
		QueryCost:            queryCost,
		StorageCost:          storageCost,
		IndexCost:            indexCost,
		EstimatedMonthlyCost: queryCost + storageCost,
	}
}
