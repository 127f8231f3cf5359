//go:generate mockgen -source=../trip_repository.go   -destination=./mock_trip_repository.go   -package=mocks
//go:generate mockgen -source=../place_repository.go  -destination=./mock_place_repository.go  -package=mocks
//go:generate mockgen -source=../photo_repository.go  -destination=./mock_photo_repository.go  -package=mocks
//go:generate mockgen -source=../geo_cache.go         -destination=./mock_geo_cache.go         -package=mocks
//go:generate mockgen -source=../geocoder.go          -destination=./mock_geocoder.go          -package=mocks
//go:generate mockgen -source=../photo_store.go       -destination=./mock_photo_store.go       -package=mocks
//go:generate mockgen -source=../validator.go         -destination=./mock_validator.go         -package=mocks
//go:generate mockgen -source=../logger.go            -destination=./mock_logger.go            -package=mocks
//go:generate mockgen -source=../message_consumer.go  -destination=./mock_message_consumer.go  -package=mocks
//go:generate mockgen -source=../trip_read_service.go -destination=./mock_trip_read_service.go -package=mocks
//go:generate mockgen -source=../place_resolver.go    -destination=./mock_place_resolver.go    -package=mocks
//go:generate mockgen -source=../photo_manager.go     -destination=./mock_photo_manager.go     -package=mocks

package mocks
