package permission

// Permission slugs used across the console. Page modules check these via
// HasPermission; the table below decides which roles hold them.
const (
	PermCustomersRead   = "customers.read"
	PermCustomersManage = "customers.manage"
	PermTicketsRead     = "tickets.read"
	PermTicketsManage   = "tickets.manage"
	PermOrdersRead      = "orders.read"
	PermOrdersManage    = "orders.manage"
	PermInvoicesRead    = "invoices.read"
	PermInvoicesManage  = "invoices.manage"
	PermHostingRead     = "hosting.read"
	PermHostingManage   = "hosting.manage"
	PermDNSRead         = "dns.read"
	PermDNSManage       = "dns.manage"
	PermReportsView     = "reports.view"
	PermSettingsManage  = "settings.manage"
	PermProductsManage  = "products.manage"
)

// DefaultTable builds and freezes the console's static role catalog.
func DefaultTable() *Table {
	t := NewTable()

	must := func(err error) {
		if err != nil {
			panic(err)
		}
	}

	must(t.Grant(RoleAdmin,
		PermCustomersRead, PermCustomersManage,
		PermTicketsRead, PermTicketsManage,
		PermOrdersRead, PermOrdersManage,
		PermInvoicesRead, PermInvoicesManage,
		PermHostingRead, PermHostingManage,
		PermDNSRead, PermDNSManage,
		PermReportsView, PermSettingsManage, PermProductsManage,
	))
	must(t.Grant(RoleCorporate,
		PermCustomersRead,
		PermTicketsRead, PermTicketsManage,
		PermOrdersRead, PermOrdersManage,
		PermInvoicesRead,
		PermHostingRead, PermHostingManage,
		PermDNSRead, PermDNSManage,
		PermReportsView,
	))
	must(t.Grant(RoleClient,
		PermTicketsRead, PermTicketsManage,
		PermOrdersRead,
		PermInvoicesRead,
		PermHostingRead,
		PermDNSRead,
	))
	must(t.Grant(RoleSupportAgent,
		PermCustomersRead,
		PermTicketsRead, PermTicketsManage,
		PermOrdersRead,
	))
	must(t.Grant(RoleSupportManager,
		PermCustomersRead,
		PermTicketsRead, PermTicketsManage,
		PermOrdersRead, PermOrdersManage,
		PermReportsView,
	))

	must(t.SetDashboard(RoleAdmin, "/admin"))
	must(t.SetDashboard(RoleCorporate, "/corporate"))
	must(t.SetDashboard(RoleClient, "/dashboard"))
	must(t.SetDashboard(RoleSupportAgent, "/support"))
	must(t.SetDashboard(RoleSupportManager, "/support"))

	t.Freeze()
	return t
}
