package manifest

// Default returns the compiled-in contract for the manufacturing / order /
// design / QC / shipping / financial application. Each call returns a fresh
// value.
func Default() *Manifest {
	return &Manifest{
		Tables: []TableSpec{
			{
				Name:                 "customers",
				RequiredColumns:      []string{"id", "name", "email", "created_at"},
				ExpectedIndexMinimum: 1,
				Probe: &ProbeSpec{
					Marker:   "email",
					Fixture:  map[string]any{"name": "fake:company"},
					Required: []string{"name"},
					Unique:   []string{"email"},
					Defaults: map[string]string{"created_at": DefaultSet},
				},
			},
			{
				Name:                 "orders",
				RequiredColumns:      []string{"id", "order_number", "customer_id", "status", "total_amount", "created_at"},
				ExpectedForeignKeys:  []ForeignKeyRef{{Column: "customer_id", TargetTable: "customers"}},
				ExpectedIndexMinimum: 1,
				Probe: &ProbeSpec{
					Marker:   "order_number",
					Required: []string{"customer_id"},
					Unique:   []string{"order_number"},
					Parents:  []ParentRef{{Column: "customer_id", Table: "customers"}},
					Defaults: map[string]string{"status": "pending", "total_amount": "0", "created_at": DefaultSet},
					Decimals: map[string]string{"total_amount": "123.45"},
				},
			},
			{
				Name:                 "order_items",
				RequiredColumns:      []string{"id", "order_id", "product_name", "quantity", "unit_price"},
				ExpectedForeignKeys:  []ForeignKeyRef{{Column: "order_id", TargetTable: "orders"}},
				ExpectedIndexMinimum: 1,
				Probe: &ProbeSpec{
					Marker:   "product_name",
					Fixture:  map[string]any{"quantity": 1},
					Required: []string{"order_id"},
					Parents:  []ParentRef{{Column: "order_id", Table: "orders"}},
					Decimals: map[string]string{"unit_price": "19.99"},
				},
			},
			{
				Name:                 "designs",
				RequiredColumns:      []string{"id", "order_id", "name", "status", "version", "created_at"},
				ExpectedForeignKeys:  []ForeignKeyRef{{Column: "order_id", TargetTable: "orders"}},
				ExpectedIndexMinimum: 1,
				Probe: &ProbeSpec{
					Marker:   "name",
					Required: []string{"order_id"},
					Parents:  []ParentRef{{Column: "order_id", Table: "orders"}},
					Defaults: map[string]string{"status": "draft", "version": "1"},
				},
			},
			{
				Name:                 "production_orders",
				RequiredColumns:      []string{"id", "order_id", "production_number", "status", "quantity", "created_at"},
				ExpectedForeignKeys:  []ForeignKeyRef{{Column: "order_id", TargetTable: "orders"}},
				ExpectedIndexMinimum: 1,
				Probe: &ProbeSpec{
					Marker:   "production_number",
					Fixture:  map[string]any{"quantity": 10},
					Required: []string{"order_id"},
					Unique:   []string{"production_number"},
					Parents:  []ParentRef{{Column: "order_id", Table: "orders"}},
					Defaults: map[string]string{"status": "planned"},
				},
			},
			{
				Name:                 "production_milestones",
				RequiredColumns:      []string{"id", "production_order_id", "name", "status", "due_date", "completed_at"},
				ExpectedForeignKeys:  []ForeignKeyRef{{Column: "production_order_id", TargetTable: "production_orders"}},
				ExpectedIndexMinimum: 1,
				Probe: &ProbeSpec{
					Marker:   "name",
					Required: []string{"production_order_id"},
					Parents:  []ParentRef{{Column: "production_order_id", Table: "production_orders"}},
					Defaults: map[string]string{"status": "pending"},
				},
			},
			{
				Name:            "qc_inspections",
				RequiredColumns: []string{"id", "production_order_id", "inspector_id", "result", "inspected_at"},
				ExpectedForeignKeys: []ForeignKeyRef{
					{Column: "production_order_id", TargetTable: "production_orders"},
					{Column: "inspector_id", TargetTable: "auth.users"},
				},
				ExpectedIndexMinimum: 1,
			},
			{
				Name:                 "shipments",
				RequiredColumns:      []string{"id", "order_id", "tracking_number", "carrier", "status", "shipped_at"},
				ExpectedForeignKeys:  []ForeignKeyRef{{Column: "order_id", TargetTable: "orders"}},
				ExpectedIndexMinimum: 1,
				Probe: &ProbeSpec{
					Marker:   "tracking_number",
					Fixture:  map[string]any{"carrier": "fake:company"},
					Required: []string{"order_id"},
					Unique:   []string{"tracking_number"},
					Parents:  []ParentRef{{Column: "order_id", Table: "orders"}},
					Defaults: map[string]string{"status": "pending"},
				},
			},
			{
				Name: "invoices",
				RequiredColumns: []string{
					"id", "invoice_number", "order_id", "customer_id", "subtotal", "tax_amount",
					"total_amount", "status", "payment_terms", "due_date", "created_at",
				},
				ExpectedForeignKeys: []ForeignKeyRef{
					{Column: "customer_id", TargetTable: "customers"},
					{Column: "order_id", TargetTable: "orders"},
				},
				ExpectedIndexMinimum: 1,
				Probe: &ProbeSpec{
					Marker:   "invoice_number",
					Required: []string{"customer_id"},
					Unique:   []string{"invoice_number"},
					Parents:  []ParentRef{{Column: "customer_id", Table: "customers"}},
					Defaults: map[string]string{
						"subtotal":      "0",
						"tax_amount":    "0",
						"total_amount":  "0",
						"status":        "pending",
						"payment_terms": "Net 30",
						"created_at":    DefaultSet,
					},
					Decimals: map[string]string{"subtotal": "123.45", "tax_amount": "9.88", "total_amount": "133.33"},
				},
			},
			{
				Name:                 "payments",
				RequiredColumns:      []string{"id", "invoice_id", "amount", "method", "reference", "paid_at"},
				ExpectedForeignKeys:  []ForeignKeyRef{{Column: "invoice_id", TargetTable: "invoices"}},
				ExpectedIndexMinimum: 1,
				Probe: &ProbeSpec{
					Marker:   "reference",
					Fixture:  map[string]any{"method": "bank_transfer", "amount": "10.00"},
					Required: []string{"invoice_id", "amount"},
					Parents:  []ParentRef{{Column: "invoice_id", Table: "invoices"}},
					Decimals: map[string]string{"amount": "123.45"},
				},
			},
			{
				Name:                 "users",
				Schema:               "auth",
				RequiredColumns:      []string{"id", "email", "created_at"},
				ExpectedIndexMinimum: 1,
			},
		},
	}
}
