// Package containers provides testcontainer management for integration tests.
//
// It starts a MySQL 8.0 container via testcontainers-go so the repository
// layer can be exercised against the same database engine used in
// production. Containers are typically managed with TestMain:
//
//	var mysqlContainer *containers.MySQLContainer
//
//	func TestMain(m *testing.M) {
//	    var err error
//	    mysqlContainer, err = containers.NewMySQLContainer(context.Background(), nil)
//	    if err != nil {
//	        log.Fatal(err)
//	    }
//	    code := m.Run()
//	    _ = mysqlContainer.Terminate(context.Background())
//	    os.Exit(code)
//	}
//
// Integration tests using this package carry the "integration" build tag:
//
//	go test -tags=integration ./...
package containers
