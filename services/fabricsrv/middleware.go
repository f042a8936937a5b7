// Copyright (C) 2026 Harc Fabric Contributors
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.

package fabricsrv

import "github.com/gin-gonic/gin"

// requestIDMiddleware assigns or echoes X-Request-ID, grounded on
// services/trace (code_buddy package)'s getOrCreateRequestID helper.
func requestIDMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		getOrCreateRequestID(c)
		c.Next()
	}
}
