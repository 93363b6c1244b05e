// Package datagetter wraps page data loaders so that failures become data.
//
// A wrapped getter never returns an error and never panics. Errors are
// normalized into a response.HTTPError and returned in the Result, so the
// page can render an error state instead of failing the whole render:
//
//	w := datagetter.New(datagetter.WithExtender(func(pc ssr.PageContext) map[string]any {
//		return map[string]any{"url": pc.URLOriginal()}
//	}))
//
//	getProduct := datagetter.Wrap(w, func(ctx context.Context, pc ssr.PageContext) (Product, error) {
//		return store.Product(ctx, pc["productId"].(string))
//	})
//
//	res := getProduct(ctx, pc)
//	if res.Failed() {
//		// res.Err holds the normalized error
//	}
//
// Encoded as JSON a Result has the shape pages expect: the data fields on
// success, {"dataGetterError": {...}} on failure, and the extra fields in
// both cases.
package datagetter
